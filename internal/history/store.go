package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Batch workers record results concurrently; WAL plus busy_timeout absorbs
// most contention and this covers the rest.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const connectionPragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them;
	// foreign_keys is per connection in sqlite.
	db, err := sql.Open("sqlite", "file:"+path+"?"+connectionPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
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

// StartRun opens a new run with a fresh uuid.
func (s *Store) StartRun(ctx context.Context, workers int, filters string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Status:    RunRunning,
		Workers:   workers,
		Filters:   strings.TrimSpace(filters),
		StartedAt: time.Now().UTC(),
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, status, workers, filters, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.Status,
		run.Workers,
		nullableString(run.Filters),
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordResult appends the outcome of one chart to a run.
func (s *Store) RecordResult(ctx context.Context, res Result) error {
	if strings.TrimSpace(res.RunID) == "" {
		return errors.New("result has no run id")
	}
	if res.RecordedAt.IsZero() {
		res.RecordedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO results (
            run_id, chart_id, song_id, difficulty, source_path, status, error_kind,
            message, duration_ms, warnings, output_path, output_bytes, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		res.ChartID,
		res.SongID,
		res.Difficulty,
		nullableString(res.SourcePath),
		res.Status,
		nullableString(res.ErrorKind),
		nullableString(res.Message),
		res.Duration.Milliseconds(),
		res.Warnings,
		nullableString(res.OutputPath),
		res.OutputBytes,
		res.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", res.ChartID, err)
	}
	return nil
}

// FinishRun closes a run and stores its totals, computed from its results.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus) (*Run, error) {
	finished := time.Now().UTC().Format(timeLayout)
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET
            status = ?,
            finished_at = ?,
            total = (SELECT COUNT(1) FROM results WHERE run_id = runs.id),
            converted = (SELECT COUNT(1) FROM results WHERE run_id = runs.id AND status = ?),
            failed = (SELECT COUNT(1) FROM results WHERE run_id = runs.id AND status = ?),
            skipped = (SELECT COUNT(1) FROM results WHERE run_id = runs.id AND status = ?),
            warnings = (SELECT COALESCE(SUM(warnings), 0) FROM results WHERE run_id = runs.id)
         WHERE id = ?`,
		status,
		finished,
		StatusConverted,
		StatusFailed,
		StatusSkipped,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("finish run: run %s not found", runID)
	}
	return s.GetRun(ctx, runID)
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Results returns chart results matching filter, newest first.
func (s *Store) Results(ctx context.Context, filter ResultFilter) ([]Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results`
	var (
		clauses []string
		args    []any
	)
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.FailedOnly {
		clauses = append(clauses, "status = ?")
		args = append(args, StatusFailed)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}
