package registry

import (
	"strings"
	"time"

	"scribe/internal/media"
	"scribe/internal/transcribe"
)

// ExecutionStatus represents the lifecycle of a workflow execution.
type ExecutionStatus string

const (
	ExecutionPending    ExecutionStatus = "pending"
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionFailed     ExecutionStatus = "failed"
)

var allExecutionStatuses = []ExecutionStatus{
	ExecutionPending,
	ExecutionProcessing,
	ExecutionCompleted,
	ExecutionFailed,
}

// AllExecutionStatuses returns the ordered list of known statuses.
func AllExecutionStatuses() []ExecutionStatus {
	cp := make([]ExecutionStatus, len(allExecutionStatuses))
	copy(cp, allExecutionStatuses)
	return cp
}

// ParseExecutionStatus converts a string into a known ExecutionStatus.
func ParseExecutionStatus(value string) (ExecutionStatus, bool) {
	normalized := ExecutionStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allExecutionStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the execution reached Success or Fail.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// Execution is one end-to-end workflow run for a single uploaded file.
type Execution struct {
	ID           int64
	Bucket       string
	Key          string
	BaseName     string
	SizeBytes    int64
	Route        media.Route
	Status       ExecutionStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetFailed marks the execution failed with the given error message.
func (e *Execution) SetFailed(message string) {
	e.Status = ExecutionFailed
	e.ErrorMessage = message
}

// Job is one transcription job record: one (segment, language) pair.
type Job struct {
	ID            string
	ExecutionID   int64
	Language      string
	Status        transcribe.Status
	OriginalKey   string
	BaseName      string
	MediaKey      string
	ChunkIndex    int // 1-based; 0 when the file was not split
	TotalChunks   int
	OutputKey     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HealthSummary describes aggregated execution counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
