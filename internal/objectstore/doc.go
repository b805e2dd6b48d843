// Package objectstore defines the object-store contract the workflow
// consumes and provides an Amazon S3 implementation. Any S3-compatible
// store (MinIO, R2) works through a custom endpoint.
package objectstore
