package jobs

import (
	"context"
	"log/slog"

	"scribe/internal/logging"
	"scribe/internal/registry"
	"scribe/internal/transcribe"
)

// Monitor polls transcription job status and records terminal transitions in
// the registry. It holds no state between calls; registry writes are
// idempotent, so concurrent pollers racing on the same job id converge to
// the same final record.
type Monitor struct {
	client transcribe.Client
	store  *registry.Store
	logger *slog.Logger
}

// NewMonitor constructs a job monitor.
func NewMonitor(client transcribe.Client, store *registry.Store, logger *slog.Logger) *Monitor {
	return &Monitor{
		client: client,
		store:  store,
		logger: logging.NewComponentLogger(logger, "monitor"),
	}
}

// AwaitResult is the outcome of one poll pass over a job set.
type AwaitResult struct {
	AllComplete bool
	Completed   []*registry.Job
	Failed      []*registry.Job
}

// Poll fetches the job's current status and persists terminal transitions.
// Re-polling an already terminal job is a safe no-op returning the cached
// result. The job struct is updated in place to mirror the registry.
func (m *Monitor) Poll(ctx context.Context, job *registry.Job) (transcribe.Status, error) {
	if job.Status.IsTerminal() {
		return job.Status, nil
	}

	state, err := m.client.GetJob(ctx, job.ID)
	if err != nil {
		return job.Status, err
	}

	switch state.Status {
	case transcribe.StatusCompleted:
		if err := m.store.SetJobStatus(ctx, job.ID, transcribe.StatusCompleted, state.OutputKey, ""); err != nil {
			return job.Status, err
		}
		job.Status = transcribe.StatusCompleted
		job.OutputKey = state.OutputKey
		m.logger.Info("transcription job completed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldLanguage, job.Language),
			logging.String("output_key", state.OutputKey),
		)
	case transcribe.StatusFailed:
		if err := m.store.SetJobStatus(ctx, job.ID, transcribe.StatusFailed, "", state.FailureReason); err != nil {
			return job.Status, err
		}
		job.Status = transcribe.StatusFailed
		job.FailureReason = state.FailureReason
		m.logger.Warn("transcription job failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldLanguage, job.Language),
			logging.String("failure_reason", state.FailureReason),
		)
	}
	return job.Status, nil
}

// AwaitAll polls every job once. The set is all-complete only when every
// member is Completed; a single Failed member marks the set as terminally
// failed rather than incomplete, so the caller can tell retry-worthy
// incompleteness from fatal failure.
func (m *Monitor) AwaitAll(ctx context.Context, jobs []*registry.Job) (AwaitResult, error) {
	result := AwaitResult{}
	for _, job := range jobs {
		status, err := m.Poll(ctx, job)
		if err != nil {
			return AwaitResult{}, err
		}
		switch status {
		case transcribe.StatusCompleted:
			result.Completed = append(result.Completed, job)
		case transcribe.StatusFailed:
			result.Failed = append(result.Failed, job)
		}
	}
	result.AllComplete = len(result.Completed) == len(jobs) && len(jobs) > 0
	return result, nil
}
