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
)

// ErrNotFound is returned when a run ID is not in the ledger.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

const runColumns = "id, source_url, time_range, output_path, status, failed_stage, error_kind, error_message, exit_code, started_at, finished_at"

// Store is the SQLite run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the ledger at path, creating the file and schema on first use.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := migrate(context.Background(), db, path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. Safe on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts run in the running state.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("begin run: id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, source_url, time_range, output_path, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceURL, run.TimeRange, nullableString(run.OutputPath),
		string(StatusRunning), formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

// Finish stores the outcome of a run started with Begin. A zero Status means
// the run succeeded.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now()
	}
	if outcome.Status == "" {
		outcome.Status = StatusSucceeded
	}
	affected, err := s.exec(ctx,
		`UPDATE runs SET status = ?, failed_stage = ?, error_kind = ?, error_message = ?, exit_code = ?, finished_at = ? WHERE id = ?`,
		string(outcome.Status),
		nullableString(outcome.FailedStage),
		nullableString(outcome.ErrorKind),
		nullableString(outcome.ErrorMessage),
		outcome.ExitCode,
		formatTime(outcome.FinishedAt),
		id,
	)
	switch {
	case err != nil:
		return fmt.Errorf("finish run %s: %w", id, err)
	case affected == 0:
		return fmt.Errorf("finish run %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns a single run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(orBackground(ctx), "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return run, err
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(orBackground(ctx),
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
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

// exec runs a write with busy retries and reports the affected row count.
func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	ctx = orBackground(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
