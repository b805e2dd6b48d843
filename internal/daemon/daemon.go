// Package daemon assembles the long-running scribe process: single-instance
// locking, storage clients, and the workflow manager.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/objectstore"
	"scribe/internal/registry"
	"scribe/internal/relocate"
	"scribe/internal/split"
	"scribe/internal/transcribe"
	"scribe/internal/workflow"
)

// Daemon owns the process-wide resources of a scribed instance.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *flock.Flock
	store   *registry.Store
	manager *workflow.Manager
}

// New acquires the instance lock and wires the workflow components. The
// context is used for AWS client construction only.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "scribed.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another scribed instance holds %s", lock.Path())
	}

	store, err := registry.Open(cfg)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open registry: %w", err)
	}

	s3Client, err := objectstore.NewS3Client(ctx, cfg.Storage.Region, cfg.Storage.Endpoint)
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("build s3 client: %w", err)
	}
	mediaStore := objectstore.NewS3(s3Client, cfg.Storage.MediaBucket)
	outputStore := objectstore.NewS3(s3Client, cfg.Storage.OutputBucket)

	transcribeClient, err := transcribe.NewAWS(ctx, cfg.Transcribe.Region)
	if err != nil {
		store.Close()
		lock.Unlock()
		return nil, fmt.Errorf("build transcribe client: %w", err)
	}

	splitter := split.New(mediaStore, cfg.Paths.StagingDir, cfg.Split.FFmpegBinary, logger)
	submitter := jobs.NewManager(transcribeClient, store, cfg.Storage.OutputBucket, logger)
	monitor := jobs.NewMonitor(transcribeClient, store, logger)
	relocator := relocate.New(outputStore, int64(cfg.Workflow.MergeGapMillis), logger)

	orchestrator := workflow.NewOrchestrator(cfg, store, mediaStore, splitter, submitter, monitor, relocator, logger)
	manager := workflow.NewManager(cfg, store, orchestrator, logger)

	return &Daemon{
		cfg:     cfg,
		logger:  logger,
		lock:    lock,
		store:   store,
		manager: manager,
	}, nil
}

// Store exposes the execution registry, used by diagnostic surfaces.
func (d *Daemon) Store() *registry.Store { return d.store }

// Start begins queue processing.
func (d *Daemon) Start(ctx context.Context) error {
	return d.manager.Start(ctx)
}

// Stop halts queue processing and waits for the in-flight execution.
func (d *Daemon) Stop() {
	d.manager.Stop()
}

// Close releases the registry and the instance lock. Call after Stop.
func (d *Daemon) Close() error {
	var firstErr error
	if err := d.store.Close(); err != nil {
		firstErr = err
	}
	if err := d.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
