package media

import (
	"fmt"
	"path"
	"strings"
)

// SegmentRef identifies one unit of transcription work: either a whole file
// or one bounded-duration chunk of it. Immutable once created.
type SegmentRef struct {
	Bucket      string
	Key         string
	BaseName    string
	ChunkIndex  int // 1-based; 0 when the file was not split
	TotalChunks int
}

// IsChunk reports whether the segment is one chunk of a split file.
func (s SegmentRef) IsChunk() bool { return s.ChunkIndex > 0 }

// Label returns a short identifier for logging: the base name, suffixed with
// the chunk label for split files.
func (s SegmentRef) Label() string {
	if !s.IsChunk() {
		return s.BaseName
	}
	return s.BaseName + "/" + ChunkLabel(s.ChunkIndex)
}

// WholeFile synthesizes the single segment used on the direct path.
func WholeFile(bucket, key string) SegmentRef {
	return SegmentRef{
		Bucket:   bucket,
		Key:      key,
		BaseName: BaseName(key),
	}
}

// ChunkLabel formats a 1-based chunk index as the canonical zero-padded
// label ("chunk_001").
func ChunkLabel(index int) string {
	return fmt.Sprintf("chunk_%03d", index)
}

// BaseName derives the canonical base name for an uploaded object key:
// the final path element with its extension removed and characters outside
// [A-Za-z0-9._-] replaced, so it is safe in both object keys and job names.
func BaseName(key string) string {
	base := path.Base(strings.TrimSpace(key))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "upload"
	}
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
