// Package relocate moves completed transcription outputs to their canonical
// keys and, for split files, merges per-chunk caption tracks into one
// continuous track.
package relocate
