package transcribe

import "context"

// Status is the lifecycle of a transcription job as the workflow sees it.
// Transitions are monotone: Submitted -> Completed or Submitted -> Failed,
// never reversed.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StartJobInput describes one transcription job submission.
type StartJobInput struct {
	JobID        string
	MediaURI     string
	LanguageCode string
	OutputBucket string
}

// JobState is the externally visible state of a submitted job. OutputKey is
// the caption file's key in the output bucket, set once Completed.
// FailureReason is set once Failed.
type JobState struct {
	Status        Status
	OutputKey     string
	FailureReason string
}

// Client is the speech-to-text service contract. Implementations must be
// safe for concurrent use.
type Client interface {
	StartJob(ctx context.Context, in StartJobInput) error
	GetJob(ctx context.Context, jobID string) (JobState, error)
}
