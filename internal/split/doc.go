// Package split drives the external media splitter tool (ffmpeg's segment
// muxer) to slice large uploads into bounded-duration chunks and produces
// the segment manifest the rest of the workflow fans out over.
package split
