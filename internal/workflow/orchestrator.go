package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/objectstore"
	"scribe/internal/registry"
	"scribe/internal/services"
)

// State is one node of the orchestration state machine.
type State string

const (
	StateCheckSize  State = "CheckSize"
	StateSplitMedia State = "SplitMedia"
	StateFanOut     State = "FanOutSegments"
	StateSubmitJobs State = "SubmitJobs"
	StatePollLoop   State = "PollLoop"
	StateRelocate   State = "Relocate"
	StateSuccess    State = "Success"
	StateFail       State = "Fail"
)

// MediaSplitter produces the segment manifest for a large upload.
type MediaSplitter interface {
	Split(ctx context.Context, bucket, key string, segmentSeconds int) ([]media.SegmentRef, error)
}

// JobSubmitter starts transcription jobs for one segment.
type JobSubmitter interface {
	Submit(ctx context.Context, executionID int64, segment media.SegmentRef, languages []string) (map[string]*registry.Job, error)
}

// JobMonitor polls a job set once per call.
type JobMonitor interface {
	AwaitAll(ctx context.Context, jobSet []*registry.Job) (jobs.AwaitResult, error)
}

// CaptionRelocator finalizes completed outputs.
type CaptionRelocator interface {
	Relocate(ctx context.Context, job *registry.Job) (string, error)
	MergeLanguage(ctx context.Context, baseName, languageCode string, totalChunks int) (string, error)
}

// Orchestrator drives one workflow execution through the state machine.
// It is the sole owner of execution state transitions.
type Orchestrator struct {
	cfg        *config.Config
	store      *registry.Store
	mediaStore objectstore.Store
	splitter   MediaSplitter
	submitter  JobSubmitter
	monitor    JobMonitor
	relocator  CaptionRelocator
	logger     *slog.Logger

	stepRetry    RetryPolicy
	pollRetry    RetryPolicy
	pollInterval time.Duration
	sleep        func(context.Context, time.Duration) error
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithSleep substitutes the wait function, used in tests to avoid real
// poll-interval and backoff delays.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithRetryPolicies overrides the step and poll retry policies.
func WithRetryPolicies(step, poll RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.stepRetry = step
		o.pollRetry = poll
	}
}

// NewOrchestrator wires the workflow components together. Retry policies and
// the poll interval come from configuration.
func NewOrchestrator(
	cfg *config.Config,
	store *registry.Store,
	mediaStore objectstore.Store,
	splitter MediaSplitter,
	submitter JobSubmitter,
	monitor JobMonitor,
	relocator CaptionRelocator,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	backoff := time.Duration(cfg.Workflow.RetryBackoffSeconds) * time.Second
	o := &Orchestrator{
		cfg:        cfg,
		store:      store,
		mediaStore: mediaStore,
		splitter:   splitter,
		submitter:  submitter,
		monitor:    monitor,
		relocator:  relocator,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		stepRetry: RetryPolicy{
			Attempts:       cfg.Workflow.StepRetryAttempts,
			InitialBackoff: backoff,
			Multiplier:     cfg.Workflow.RetryBackoffMultiplier,
		},
		pollRetry: RetryPolicy{
			Attempts:       cfg.Workflow.PollRetryAttempts,
			InitialBackoff: backoff,
			Multiplier:     cfg.Workflow.RetryBackoffMultiplier,
		},
		pollInterval: time.Duration(cfg.Workflow.JobPollInterval) * time.Second,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run drives the execution from CheckSize to a terminal state. The terminal
// status is persisted before returning; the returned error is the failure
// cause when the terminal state is Fail.
func (o *Orchestrator) Run(ctx context.Context, exec *registry.Execution) error {
	ctx = services.WithExecutionID(ctx, exec.ID)
	logger := o.logger.With(
		logging.Int64(logging.FieldExecutionID, exec.ID),
		logging.String(logging.FieldRequestID, uuid.NewString()),
	)

	started := time.Now()
	logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.String("bucket", exec.Bucket),
		logging.String("object_key", exec.Key),
	)

	state := StateCheckSize
	var segments []media.SegmentRef
	var directJobs []*registry.Job

	for {
		stageCtx := services.WithStage(ctx, string(state))
		switch state {
		case StateCheckSize:
			err := o.stepRetry.Run(stageCtx, logger, string(state), func(ctx context.Context) error {
				size, err := o.mediaStore.Head(ctx, exec.Key)
				if err != nil {
					return err
				}
				exec.SizeBytes = size
				exec.Route = media.Classify(size, o.cfg.SizeThresholdBytes())
				return o.store.UpdateExecution(ctx, exec)
			})
			if err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			logger.Info("file classified",
				logging.Int64("size_bytes", exec.SizeBytes),
				logging.String("route", string(exec.Route)),
			)
			if exec.Route == media.RouteSplit {
				state = StateSplitMedia
			} else {
				state = StateSubmitJobs
			}

		case StateSplitMedia:
			err := o.stepRetry.Run(stageCtx, logger, string(state), func(ctx context.Context) error {
				var splitErr error
				segments, splitErr = o.splitter.Split(ctx, exec.Bucket, exec.Key, o.cfg.Split.SegmentSeconds)
				return splitErr
			})
			if err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			state = StateFanOut

		case StateFanOut:
			if err := o.runFanOut(stageCtx, logger, exec, segments); err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			state = StateRelocate

		case StateSubmitJobs:
			segment := media.WholeFile(exec.Bucket, exec.Key)
			err := o.stepRetry.Run(stageCtx, logger, string(state), func(ctx context.Context) error {
				byLanguage, submitErr := o.submitter.Submit(ctx, exec.ID, segment, o.cfg.Transcribe.Languages)
				if submitErr != nil {
					return submitErr
				}
				directJobs = directJobs[:0]
				for _, job := range byLanguage {
					directJobs = append(directJobs, job)
				}
				return nil
			})
			if err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			state = StatePollLoop

		case StatePollLoop:
			if err := o.pollUntilDone(stageCtx, logger, directJobs); err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			state = StateRelocate

		case StateRelocate:
			err := o.stepRetry.Run(stageCtx, logger, string(state), func(ctx context.Context) error {
				return o.finalizeCaptions(ctx, exec, segments, directJobs)
			})
			if err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			state = StateSuccess

		case StateSuccess:
			exec.Status = registry.ExecutionCompleted
			exec.ErrorMessage = ""
			if err := o.store.UpdateExecution(ctx, exec); err != nil {
				return o.fail(ctx, logger, exec, state, err)
			}
			logger.Info("workflow completed",
				logging.String(logging.FieldEventType, "workflow_complete"),
				logging.Duration("workflow_duration", time.Since(started)),
			)
			return nil

		default:
			return o.fail(ctx, logger, exec, state, fmt.Errorf("unknown state %q", state))
		}
	}
}

// runFanOut processes segment branches with bounded concurrency. Each branch
// submits, polls, and relocates independently; a branch failure does not
// cancel in-flight siblings, but the fan-out as a whole fails once any
// branch fails and surviving branch results are discarded.
func (o *Orchestrator) runFanOut(ctx context.Context, logger *slog.Logger, exec *registry.Execution, segments []media.SegmentRef) error {
	bound := o.cfg.Workflow.SegmentConcurrency
	if bound < 1 {
		bound = 1
	}
	slots := make(chan struct{}, bound)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, segment := range segments {
		wg.Add(1)
		go func(segment media.SegmentRef) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			branchLogger := logger.With(logging.Int(logging.FieldChunk, segment.ChunkIndex))
			if err := o.runBranch(ctx, branchLogger, exec, segment); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", segment.Label(), err)
				}
				mu.Unlock()
			}
		}(segment)
	}
	wg.Wait()
	return firstErr
}

// runBranch executes SubmitJobs -> PollLoop -> Relocate for one segment.
func (o *Orchestrator) runBranch(ctx context.Context, logger *slog.Logger, exec *registry.Execution, segment media.SegmentRef) error {
	var branchJobs []*registry.Job
	err := o.stepRetry.Run(ctx, logger, string(StateSubmitJobs), func(ctx context.Context) error {
		byLanguage, submitErr := o.submitter.Submit(ctx, exec.ID, segment, o.cfg.Transcribe.Languages)
		if submitErr != nil {
			return submitErr
		}
		branchJobs = branchJobs[:0]
		for _, job := range byLanguage {
			branchJobs = append(branchJobs, job)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := o.pollUntilDone(ctx, logger, branchJobs); err != nil {
		return err
	}

	for _, job := range branchJobs {
		job := job
		err := o.stepRetry.Run(ctx, logger, string(StateRelocate), func(ctx context.Context) error {
			_, relocateErr := o.relocator.Relocate(ctx, job)
			return relocateErr
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// pollUntilDone is the convergence loop: poll once, and if the set is
// neither all-complete nor terminally failed, park for the poll interval
// and poll again. Prior states are never re-run on resume.
func (o *Orchestrator) pollUntilDone(ctx context.Context, logger *slog.Logger, jobSet []*registry.Job) error {
	if len(jobSet) == 0 {
		return services.Wrap(services.ErrValidation, "workflow", "poll", "no jobs to monitor", nil)
	}
	for {
		var result jobs.AwaitResult
		err := o.pollRetry.Run(ctx, logger, string(StatePollLoop), func(ctx context.Context) error {
			var pollErr error
			result, pollErr = o.monitor.AwaitAll(ctx, jobSet)
			return pollErr
		})
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			first := result.Failed[0]
			return fmt.Errorf("transcription job %s failed: %s", first.ID, first.FailureReason)
		}
		if result.AllComplete {
			return nil
		}
		logger.Debug("jobs still in progress, parking",
			logging.Int("completed", len(result.Completed)),
			logging.Int("total", len(jobSet)),
			logging.Duration("poll_interval", o.pollInterval),
		)
		if err := o.sleep(ctx, o.pollInterval); err != nil {
			return err
		}
	}
}

// finalizeCaptions performs the terminal Relocate state: on the direct path
// it relocates the whole-file jobs; on the split path the branches already
// relocated their chunks, so it merges per-chunk captions for each language.
func (o *Orchestrator) finalizeCaptions(ctx context.Context, exec *registry.Execution, segments []media.SegmentRef, directJobs []*registry.Job) error {
	if exec.Route == media.RouteSplit {
		for _, language := range o.cfg.Transcribe.Languages {
			if _, err := o.relocator.MergeLanguage(ctx, exec.BaseName, language, len(segments)); err != nil {
				return err
			}
		}
		return nil
	}
	for _, job := range directJobs {
		if _, err := o.relocator.Relocate(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// fail records the terminal Fail state with the original error attached.
// Fail is irreversible; a fresh upload event is required to reprocess.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, exec *registry.Execution, state State, cause error) error {
	exec.SetFailed(cause.Error())
	if err := o.store.UpdateExecution(ctx, exec); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("failed to persist workflow failure", logging.Error(err))
	}
	logger.Error("workflow failed",
		logging.String(logging.FieldEventType, "workflow_failed"),
		logging.String(logging.FieldStage, string(state)),
		logging.Error(cause),
	)
	return cause
}
