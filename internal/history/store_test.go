package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Begin(ctx, Run{
		ID:         "run-1",
		SourceURL:  "https://example.com/vod/1",
		TimeRange:  "full",
		OutputPath: "/results/result.mp4",
		StartedAt:  started,
	}); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	run, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != StatusRunning || run.FinishedAt != nil {
		t.Fatalf("expected running run, got %+v", run)
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected start %s", run.StartedAt)
	}

	finished := started.Add(90 * time.Second)
	if err := store.Finish(ctx, "run-1", Outcome{
		Status:       StatusFailed,
		FailedStage:  "extract",
		ErrorKind:    "external_tool",
		ErrorMessage: "ffmpeg exited 3",
		ExitCode:     3,
		FinishedAt:   finished,
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	run, err = store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.Status != StatusFailed || run.FailedStage != "extract" || run.ExitCode != 3 {
		t.Fatalf("unexpected finished run %+v", run)
	}
	if run.ErrorKind != "external_tool" || run.ErrorMessage != "ffmpeg exited 3" {
		t.Fatalf("unexpected error fields %+v", run)
	}
	if run.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %s", run.Duration())
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openTestStore(t)
	err := store.Finish(context.Background(), "missing", Outcome{Status: StatusSucceeded})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBeginRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Begin(context.Background(), Run{SourceURL: "u"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Begin(ctx, Run{
			ID:        id,
			SourceURL: "u",
			TimeRange: "full",
			StartedAt: base.Add(time.Duration(i) * time.Minute).Add(time.Duration(i*500) * time.Millisecond),
		}); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order %+v", runs)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Begin(context.Background(), Run{ID: "keep", SourceURL: "u", TimeRange: "full"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("expected run after reopen: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil should not be busy")
	}
	if !isSQLiteBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to be detected")
	}
	if isSQLiteBusy(errors.New("no such table")) {
		t.Fatal("unexpected busy detection")
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single attempt, got %d calls err=%v", calls, err)
	}

	calls = 0
	err = retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after retries, got %d calls err=%v", calls, err)
	}

	calls = 0
	err = retryOnBusy(context.Background(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil || calls != busyAttempts {
		t.Fatalf("expected %d attempts before giving up, got %d err=%v", busyAttempts, calls, err)
	}
}

func TestOpenUsesWAL(t *testing.T) {
	store := openTestStore(t)
	var mode string
	if err := store.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", mode)
	}
}
