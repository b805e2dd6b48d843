package captions

import "time"

// Cue is one caption entry. Start and End are offsets from the beginning of
// the track in whole milliseconds.
type Cue struct {
	Index int
	Start int64
	End   int64
	Text  string
}

// Duration returns the time the cue stays on screen.
func (c Cue) Duration() time.Duration {
	return time.Duration(c.End-c.Start) * time.Millisecond
}

// Track is an ordered sequence of cues for one file or segment in one
// language. Invariant: cues are sorted by start time and indices are
// contiguous from 1.
type Track struct {
	Cues []Cue
}

// Len returns the number of cues in the track.
func (t Track) Len() int { return len(t.Cues) }

// MaxEnd returns the largest end timestamp in the track, or 0 for an empty track.
func (t Track) MaxEnd() int64 {
	var max int64
	for _, cue := range t.Cues {
		if cue.End > max {
			max = cue.End
		}
	}
	return max
}
