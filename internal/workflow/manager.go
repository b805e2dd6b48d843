package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/registry"
)

// Manager runs the execution queue: it claims pending executions one at a
// time and hands each to the orchestrator. Segment-level concurrency lives
// inside the orchestrator; the queue itself is processed serially.
type Manager struct {
	cfg          *config.Config
	store        *registry.Store
	orchestrator *Orchestrator
	logger       *slog.Logger

	queuePollInterval time.Duration
	errorRetry        time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager builds the queue manager around a configured orchestrator.
func NewManager(cfg *config.Config, store *registry.Store, orchestrator *Orchestrator, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:               cfg,
		store:             store,
		orchestrator:      orchestrator,
		logger:            logging.NewComponentLogger(logger, "workflow-manager"),
		queuePollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:        time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// Start launches the processing loop. Executions stranded in processing by
// an unclean shutdown are reset to pending first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		m.logger.Info("reset stuck executions to pending", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(runCtx)
	}()
	m.logger.Info("workflow manager started",
		logging.Duration("queue_poll_interval", m.queuePollInterval))
	return nil
}

// Stop cancels the processing loop and waits for the in-flight execution to
// wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow manager stopped")
}

func (m *Manager) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		exec, err := m.store.NextPending(ctx)
		if err != nil {
			m.logger.Error("failed to fetch next pending execution", logging.Error(err))
			if sleepContext(ctx, m.errorRetry) != nil {
				return
			}
			continue
		}
		if exec == nil {
			if sleepContext(ctx, m.queuePollInterval) != nil {
				return
			}
			continue
		}

		m.process(ctx, exec)
	}
}

func (m *Manager) process(ctx context.Context, exec *registry.Execution) {
	exec.Status = registry.ExecutionProcessing
	if err := m.store.UpdateExecution(ctx, exec); err != nil {
		m.logger.Error("failed to claim execution",
			logging.Int64(logging.FieldExecutionID, exec.ID),
			logging.Error(err))
		return
	}

	// Run persists the terminal status itself; the error here is already
	// recorded on the execution and only logged for the daemon journal.
	if err := m.orchestrator.Run(ctx, exec); err != nil {
		m.logger.Warn("execution finished with failure",
			logging.Int64(logging.FieldExecutionID, exec.ID),
			logging.String("object_key", exec.Key))
	}
}
