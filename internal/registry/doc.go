// Package registry persists workflow executions and transcription job
// records in SQLite. Job records are the single shared source of truth for
// job status; status writes are idempotent and monotone (submitted ->
// completed or submitted -> failed, never reversed), and terminal records
// are retained afterward as an audit trail.
package registry
