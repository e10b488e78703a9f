package worker

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/ArshdKhan/queuectl/queue"
	"github.com/ArshdKhan/queuectl/store"
)

// fakeExecutor lets tests script outcomes without spawning real shells.
type fakeExecutor struct {
	calls int32
	// results is consumed in order; the last entry repeats once exhausted.
	results []bool
	errMsg  string
}

func (f *fakeExecutor) Execute(ctx context.Context, command string, timeout time.Duration) (bool, string) {
	n := atomic.AddInt32(&f.calls, 1) - 1
	idx := int(n)
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	ok := f.results[idx]
	if ok {
		return true, ""
	}
	return false, f.errMsg
}

func newWorkerManager(t *testing.T) *queue.Manager {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := store.InitSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return queue.New(store.New(db), 3)
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerCompletesSuccessfulJob(t *testing.T) {
	manager := newWorkerManager(t)
	ctx := context.Background()
	if _, err := manager.Enqueue(ctx, "a", "true", queue.EnqueueOptions{}); err != nil {
		t.Fatal(err)
	}

	exec := &fakeExecutor{results: []bool{true}}
	w := New("w1", manager, exec, Config{PollInterval: 10 * time.Millisecond, JobTimeout: time.Second, BackoffBase: 2.0}, silentLogger())

	runCtx, cancel := context.WithCancel(ctx)
	if err := w.Start(runCtx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		j, err := manager.GetJob(ctx, "a")
		if err != nil {
			t.Fatal(err)
		}
		if j.State.String() == "completed" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	j, err := manager.GetJob(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if j.State.String() != "completed" {
		t.Fatalf("expected job completed, got %v", j.State)
	}

	cancel()
	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestWorkerRetriesThenExhausts(t *testing.T) {
	manager := newWorkerManager(t)
	ctx := context.Background()
	maxRetries := uint32(1)
	if _, err := manager.Enqueue(ctx, "b", "false", queue.EnqueueOptions{MaxRetries: &maxRetries}); err != nil {
		t.Fatal(err)
	}

	exec := &fakeExecutor{results: []bool{false, false}, errMsg: "boom"}
	w := New("w2", manager, exec, Config{PollInterval: 5 * time.Millisecond, JobTimeout: time.Second, BackoffBase: 1.0}, silentLogger())

	runCtx, cancel := context.WithCancel(ctx)
	if err := w.Start(runCtx); err != nil {
		t.Fatal(err)
	}
	defer func() {
		cancel()
		_ = w.Stop(time.Second)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := manager.GetJob(ctx, "b")
		if err != nil {
			t.Fatal(err)
		}
		if j.State.String() == "dead" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	j, err := manager.GetJob(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if j.State.String() != "dead" {
		t.Fatalf("expected job dead after exhausting retries, got %v", j.State)
	}
	if j.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", j.Attempts)
	}
}

func TestWorkerDoubleStartFails(t *testing.T) {
	manager := newWorkerManager(t)
	exec := &fakeExecutor{results: []bool{true}}
	w := New("w3", manager, exec, Config{PollInterval: time.Second, JobTimeout: time.Second, BackoffBase: 2.0}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected error starting an already-running worker")
	}
	_ = w.Stop(time.Second)
}
