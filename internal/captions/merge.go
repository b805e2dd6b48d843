package captions

import "errors"

// ErrNoTracks is returned when Merge is called with an empty input.
var ErrNoTracks = errors.New("no caption tracks to merge")

// Merge combines per-segment tracks, in segment order, into one continuous
// track.
//
// A running offset is added to every cue so that each segment's cues start
// after the previous segment's latest end time plus gapMillis. The offset
// only needs the cues already present in a segment's own track: cues cannot
// extend past the segment's own media duration, so accumulated maximum end
// times yield monotonic, non-overlapping timing without knowing the true
// playback duration of each segment.
//
// Cue indices in the result are renumbered 1..total. The inputs are not
// mutated. A single-track input is returned with indices renumbered only.
func Merge(tracks []Track, gapMillis int64) (Track, error) {
	if len(tracks) == 0 {
		return Track{}, ErrNoTracks
	}

	total := 0
	for _, track := range tracks {
		total += len(track.Cues)
	}

	merged := Track{Cues: make([]Cue, 0, total)}
	var offset int64
	nextIndex := 1
	for _, track := range tracks {
		var maxEnd int64
		for _, cue := range track.Cues {
			shifted := Cue{
				Index: nextIndex,
				Start: cue.Start + offset,
				End:   cue.End + offset,
				Text:  cue.Text,
			}
			nextIndex++
			if shifted.End > maxEnd {
				maxEnd = shifted.End
			}
			merged.Cues = append(merged.Cues, shifted)
		}
		if len(track.Cues) > 0 {
			offset = maxEnd + gapMillis
		}
	}
	return merged, nil
}
