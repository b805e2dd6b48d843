package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"scribe/internal/media"
	"scribe/internal/registry"
	"scribe/internal/testsupport"
	"scribe/internal/transcribe"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	exec, err := store.NewExecution(ctx, "uploads", "media/demo.mp4")
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}
	if exec.ID == 0 {
		t.Fatal("expected execution ID to be assigned")
	}
	if exec.Status != registry.ExecutionPending {
		t.Fatalf("new execution status = %q", exec.Status)
	}
	if exec.BaseName != "demo" {
		t.Fatalf("base name not derived: %q", exec.BaseName)
	}

	fetched, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if fetched == nil || fetched.Key != "media/demo.mp4" {
		t.Fatalf("unexpected fetched execution: %#v", fetched)
	}
}

func TestNextPendingOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewExecution(t, store, "uploads", "a.mp4")
	testsupport.NewExecution(t, store, "uploads", "b.mp4")

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest execution %d, got %#v", first.ID, next)
	}

	next.Status = registry.ExecutionProcessing
	if err := store.UpdateExecution(ctx, next); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}
	second, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if second == nil || second.Key != "b.mp4" {
		t.Fatalf("expected second execution, got %#v", second)
	}
}

func TestUpdateExecutionPersistsRoute(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "movie.mkv")
	exec.SizeBytes = 200 * 1024 * 1024
	exec.Route = media.RouteSplit
	exec.Status = registry.ExecutionProcessing
	if err := store.UpdateExecution(ctx, exec); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	fetched, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if fetched.Route != media.RouteSplit || fetched.SizeBytes != exec.SizeBytes {
		t.Fatalf("route/size not persisted: %#v", fetched)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "stuck.mp4")
	exec.Status = registry.ExecutionProcessing
	if err := store.UpdateExecution(ctx, exec); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset execution, got %d", reset)
	}
	fetched, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if fetched.Status != registry.ExecutionPending {
		t.Fatalf("status after reset = %q", fetched.Status)
	}
}

func TestRetryFailedAndClearTerminal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	failed := testsupport.NewExecution(t, store, "uploads", "failed.mp4")
	failed.SetFailed("speech service rejected the job")
	if err := store.UpdateExecution(ctx, failed); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}
	done := testsupport.NewExecution(t, store, "uploads", "done.mp4")
	done.Status = registry.ExecutionCompleted
	if err := store.UpdateExecution(ctx, done); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	requeued, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("expected 1 requeued execution, got %d", requeued)
	}
	fetched, err := store.GetExecution(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetExecution failed: %v", err)
	}
	if fetched.Status != registry.ExecutionPending || fetched.ErrorMessage != "" {
		t.Fatalf("retry did not reset execution: %#v", fetched)
	}

	removed, err := store.ClearTerminal(ctx)
	if err != nil {
		t.Fatalf("ClearTerminal failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 cleared execution, got %d", removed)
	}
}

func TestHealthCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewExecution(t, store, "uploads", "p.mp4")
	done := testsupport.NewExecution(t, store, "uploads", "c.mp4")
	done.Status = registry.ExecutionCompleted
	if err := store.UpdateExecution(ctx, done); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func newJob(execID int64, id string) *registry.Job {
	return &registry.Job{
		ID:          id,
		ExecutionID: execID,
		Language:    "en-US",
		OriginalKey: "media/demo.mp4",
		BaseName:    "demo",
		MediaKey:    "media/demo.mp4",
	}
}

func TestSetJobStatusIsMonotone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "media/demo.mp4")
	job := newJob(exec.ID, "demo-en-us-1")
	if err := store.PutJob(ctx, job); err != nil {
		t.Fatalf("PutJob failed: %v", err)
	}

	if err := store.SetJobStatus(ctx, job.ID, transcribe.StatusCompleted, "raw/demo.srt", ""); err != nil {
		t.Fatalf("SetJobStatus failed: %v", err)
	}
	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != transcribe.StatusCompleted || fetched.OutputKey != "raw/demo.srt" {
		t.Fatalf("completion not recorded: %#v", fetched)
	}

	// Replaying the same transition is a no-op.
	if err := store.SetJobStatus(ctx, job.ID, transcribe.StatusCompleted, "raw/demo.srt", ""); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	// A conflicting terminal status must not overwrite the first one.
	if err := store.SetJobStatus(ctx, job.ID, transcribe.StatusFailed, "", "too late"); err != nil {
		t.Fatalf("conflicting write errored: %v", err)
	}
	fetched, err = store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != transcribe.StatusCompleted {
		t.Fatalf("terminal status was overwritten: %#v", fetched)
	}
}

func TestJobQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "media/demo.mp4")
	first := newJob(exec.ID, "demo-chunk1-en")
	first.ChunkIndex = 1
	first.TotalChunks = 2
	second := newJob(exec.ID, "demo-chunk2-en")
	second.ChunkIndex = 2
	second.TotalChunks = 2
	for _, job := range []*registry.Job{second, first} {
		if err := store.PutJob(ctx, job); err != nil {
			t.Fatalf("PutJob failed: %v", err)
		}
	}

	byExec, err := store.JobsByExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("JobsByExecution failed: %v", err)
	}
	if len(byExec) != 2 || byExec[0].ChunkIndex != 1 {
		t.Fatalf("unexpected ordering: %#v", byExec)
	}

	byStatus, err := store.JobsByStatus(ctx, transcribe.StatusSubmitted)
	if err != nil {
		t.Fatalf("JobsByStatus failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Fatalf("expected 2 submitted jobs, got %d", len(byStatus))
	}

	byKey, err := store.JobsByOriginalKey(ctx, "media/demo.mp4")
	if err != nil {
		t.Fatalf("JobsByOriginalKey failed: %v", err)
	}
	if len(byKey) != 2 {
		t.Fatalf("expected 2 jobs for key, got %d", len(byKey))
	}
}

func TestClearTerminalRetainsJobRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "media/done.mp4")
	job := newJob(exec.ID, "done-en-us-1")
	if err := store.PutJob(ctx, job); err != nil {
		t.Fatalf("PutJob failed: %v", err)
	}
	exec.Status = registry.ExecutionCompleted
	if err := store.UpdateExecution(ctx, exec); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	removed, err := store.ClearTerminal(ctx)
	if err != nil {
		t.Fatalf("ClearTerminal failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 cleared execution, got %d", removed)
	}

	retained, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if retained == nil || retained.ExecutionID != exec.ID {
		t.Fatalf("job record not retained after clear: %#v", retained)
	}
}

func TestConcurrentJobWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	exec := testsupport.NewExecution(t, store, "uploads", "media/movie.mp4")

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			job := newJob(exec.ID, fmt.Sprintf("movie-en-us-%d", i))
			if err := store.PutJob(ctx, job); err != nil {
				errs <- err
				return
			}
			errs <- store.SetJobStatus(ctx, job.ID, transcribe.StatusCompleted, "raw/movie.srt", "")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write failed: %v", err)
		}
	}

	jobs, err := store.JobsByExecution(ctx, exec.ID)
	if err != nil {
		t.Fatalf("JobsByExecution failed: %v", err)
	}
	if len(jobs) != writers {
		t.Fatalf("expected %d jobs, got %d", writers, len(jobs))
	}
}
