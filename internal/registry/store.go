package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/media"
)

// Store manages registry persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the registry database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "scribe.db"))
}

// OpenPath opens the registry database at an explicit path. The pragmas ride
// in the DSN so that every connection in the pool carries them; jobs are
// written concurrently during fan-out and an unconfigured connection would
// surface SQLITE_BUSY instead of waiting.
func OpenPath(dbPath string) (*Store, error) {
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// NewExecution inserts a pending execution for an uploaded object.
func (s *Store) NewExecution(ctx context.Context, bucket, key string) (*Execution, error) {
	if bucket == "" || key == "" {
		return nil, errors.New("bucket and key are required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO workflow_executions (
            bucket, object_key, base_name, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		bucket,
		key,
		media.BaseName(key),
		ExecutionPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetExecution(ctx, id)
}

// GetExecution fetches an execution by identifier; nil when absent.
func (s *Store) GetExecution(ctx context.Context, id int64) (*Execution, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM workflow_executions WHERE id = ?`, id)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return exec, nil
}

// UpdateExecution persists changes to an existing execution.
func (s *Store) UpdateExecution(ctx context.Context, exec *Execution) error {
	if exec == nil {
		return errors.New("execution is nil")
	}
	exec.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE workflow_executions
         SET bucket = ?, object_key = ?, base_name = ?, size_bytes = ?, route = ?,
             status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		exec.Bucket,
		exec.Key,
		exec.BaseName,
		exec.SizeBytes,
		nullableString(string(exec.Route)),
		exec.Status,
		nullableString(exec.ErrorMessage),
		exec.UpdatedAt.Format(time.RFC3339Nano),
		exec.ID,
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	return nil
}

// NextPending returns the oldest execution awaiting processing, or nil.
func (s *Store) NextPending(ctx context.Context) (*Execution, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+executionColumns+` FROM workflow_executions WHERE status = ? ORDER BY created_at LIMIT 1`,
		ExecutionPending,
	)
	exec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// ListExecutions returns executions filtered by status set (or all when no
// status is provided), oldest first.
func (s *Store) ListExecutions(ctx context.Context, statuses ...ExecutionStatus) ([]*Execution, error) {
	baseQuery := `SELECT ` + executionColumns + ` FROM workflow_executions`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var execs []*Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	return execs, rows.Err()
}

// ResetStuckProcessing returns executions stuck in processing back to
// pending, used on daemon startup after an unclean shutdown.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE workflow_executions SET status = ?, updated_at = ? WHERE status = ?`,
		ExecutionPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		ExecutionProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck executions: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed executions back to pending for reprocessing.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE workflow_executions SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
			ExecutionPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			ExecutionFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed executions: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, ExecutionPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE workflow_executions SET status = ?, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(ExecutionFailed) + `'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected executions: %w", err)
	}
	return res.RowsAffected()
}

// ClearTerminal removes completed and failed executions. Job records are
// retained as an audit trail.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM workflow_executions WHERE status IN (?, ?)`,
		ExecutionCompleted,
		ExecutionFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal executions: %w", err)
	}
	return res.RowsAffected()
}

// Health aggregates execution counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM workflow_executions GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("execution stats: %w", err)
	}
	defer rows.Close()

	health := HealthSummary{}
	for rows.Next() {
		var status ExecutionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, err
		}
		health.Total += count
		switch status {
		case ExecutionPending:
			health.Pending += count
		case ExecutionProcessing:
			health.Processing += count
		case ExecutionCompleted:
			health.Completed += count
		case ExecutionFailed:
			health.Failed += count
		}
	}
	return health, rows.Err()
}

const executionColumns = "id, bucket, object_key, base_name, size_bytes, route, status, error_message, created_at, updated_at"

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*Execution, error) {
	var (
		id           int64
		bucket       string
		key          string
		baseName     string
		sizeBytes    sql.NullInt64
		route        sql.NullString
		statusStr    string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&bucket,
		&key,
		&baseName,
		&sizeBytes,
		&route,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	exec := &Execution{
		ID:           id,
		Bucket:       bucket,
		Key:          key,
		BaseName:     baseName,
		SizeBytes:    sizeBytes.Int64,
		Status:       ExecutionStatus(statusStr),
		ErrorMessage: errorMessage.String,
	}
	if parsed, ok := media.ParseRoute(route.String); ok {
		exec.Route = parsed
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		exec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		exec.UpdatedAt = updated
	}
	return exec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
