// Package captions parses, merges, and serializes SubRip caption tracks.
//
// The codec is pure: it performs no I/O and tolerates malformed cue blocks by
// skipping them. The merger combines per-segment tracks into one continuous
// track with monotonically increasing timestamps.
package captions
