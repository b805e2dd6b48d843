package captions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoCues is returned when a document yields no parseable cues.
var ErrNoCues = errors.New("caption document contains no valid cues")

// Parse decodes a SubRip document into a Track.
//
// The document is split into blank-line-delimited blocks. A valid block has
// at least three lines: a numeric index, a "start --> end" timestamp line,
// and one or more text lines (joined with embedded line breaks preserved).
// Malformed blocks are skipped; cue indices are renumbered sequentially so
// the Track invariant holds regardless of the numbering on the wire.
func Parse(document string) (Track, error) {
	normalized := strings.ReplaceAll(document, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(normalized), "\n\n")

	var cues []Cue
	for _, block := range blocks {
		cue, ok := parseBlock(block)
		if !ok {
			continue
		}
		cue.Index = len(cues) + 1
		cues = append(cues, cue)
	}
	if len(cues) == 0 {
		return Track{}, ErrNoCues
	}
	return Track{Cues: cues}, nil
}

// Format renders the track as a SubRip document. Parse(Format(t)) == t for
// any track with non-negative timestamps and indices 1..N.
func Format(track Track) string {
	var b strings.Builder
	for _, cue := range track.Cues {
		b.WriteString(strconv.Itoa(cue.Index))
		b.WriteByte('\n')
		b.WriteString(formatTimestamp(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(formatTimestamp(cue.End))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func parseBlock(block string) (Cue, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	if len(lines) < 3 {
		return Cue{}, false
	}
	if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
		return Cue{}, false
	}
	start, end, err := parseTimestampLine(lines[1])
	if err != nil {
		return Cue{}, false
	}
	text := strings.Join(lines[2:], "\n")
	if strings.TrimSpace(text) == "" {
		return Cue{}, false
	}
	return Cue{Start: start, End: end, Text: text}, true
}

func parseTimestampLine(line string) (int64, int64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timestamp line %q", line)
	}
	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(value string) (int64, error) {
	// Some encoders emit a period before the milliseconds; the SubRip
	// standard uses a comma.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || seconds < 0 || millis < 0 {
		return 0, fmt.Errorf("negative timestamp %q", value)
	}
	return int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(millis), nil
}

func formatTimestamp(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	hours := millis / 3600000
	minutes := (millis % 3600000) / 60000
	seconds := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}
