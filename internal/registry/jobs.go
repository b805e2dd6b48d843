package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scribe/internal/transcribe"
)

// PutJob inserts a new transcription job record with status submitted.
func (s *Store) PutJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if job.ID == "" {
		return errors.New("job id is required")
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = transcribe.StatusSubmitted
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO transcription_jobs (
            id, execution_id, language, status, original_key, base_name,
            media_key, chunk_index, total_chunks, output_key, failure_reason,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.ExecutionID,
		job.Language,
		job.Status,
		job.OriginalKey,
		job.BaseName,
		job.MediaKey,
		job.ChunkIndex,
		job.TotalChunks,
		nullableString(job.OutputKey),
		nullableString(job.FailureReason),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob fetches a job record by identifier; nil when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM transcription_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// SetJobStatus records a terminal status transition. Writes are idempotent
// and monotone: a record already holding a different terminal status is left
// untouched, and re-setting the same status is a no-op on replay.
func (s *Store) SetJobStatus(ctx context.Context, id string, status transcribe.Status, outputKey, failureReason string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE transcription_jobs
         SET status = ?, output_key = ?, failure_reason = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		status,
		nullableString(outputKey),
		nullableString(failureReason),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		transcribe.StatusSubmitted,
		status,
	)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	return nil
}

// JobsByExecution returns every job recorded for an execution, ordered by
// chunk index then language.
func (s *Store) JobsByExecution(ctx context.Context, executionID int64) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE execution_id = ? ORDER BY chunk_index, language`,
		executionID,
	)
	if err != nil {
		return nil, fmt.Errorf("jobs by execution: %w", err)
	}
	return collectJobs(rows)
}

// JobsByStatus returns jobs matching a status, oldest first. This is the
// registry's linear scan contract; the workflow itself always polls by
// explicit job id.
func (s *Store) JobsByStatus(ctx context.Context, status transcribe.Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE status = ? ORDER BY created_at`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("jobs by status: %w", err)
	}
	return collectJobs(rows)
}

// JobsByOriginalKey returns jobs owned by one uploaded file, ordered by
// chunk index then language.
func (s *Store) JobsByOriginalKey(ctx context.Context, originalKey string) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM transcription_jobs WHERE original_key = ? ORDER BY chunk_index, language`,
		originalKey,
	)
	if err != nil {
		return nil, fmt.Errorf("jobs by original key: %w", err)
	}
	return collectJobs(rows)
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	defer rows.Close()
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

const jobColumns = "id, execution_id, language, status, original_key, base_name, media_key, chunk_index, total_chunks, output_key, failure_reason, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id            string
		executionID   int64
		language      string
		statusStr     string
		originalKey   string
		baseName      string
		mediaKey      string
		chunkIndex    int
		totalChunks   int
		outputKey     sql.NullString
		failureReason sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&executionID,
		&language,
		&statusStr,
		&originalKey,
		&baseName,
		&mediaKey,
		&chunkIndex,
		&totalChunks,
		&outputKey,
		&failureReason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:            id,
		ExecutionID:   executionID,
		Language:      language,
		Status:        transcribe.Status(statusStr),
		OriginalKey:   originalKey,
		BaseName:      baseName,
		MediaKey:      mediaKey,
		ChunkIndex:    chunkIndex,
		TotalChunks:   totalChunks,
		OutputKey:     outputKey.String,
		FailureReason: failureReason.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}
