package worker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/ArshdKhan/queuectl/queue"
	"github.com/ArshdKhan/queuectl/store"
)

func TestPoolProcessesJobsAcrossWorkers(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	ctx := context.Background()
	if err := store.InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	manager := queue.New(store.New(db), 3)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := manager.Enqueue(ctx, id, "true", queue.EnqueueOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	exec := &fakeExecutor{results: []bool{true}}
	pool := NewPool(3, manager, exec, Config{PollInterval: 5 * time.Millisecond, JobTimeout: time.Second, BackoffBase: 2.0}, silentLogger())

	runCtx, cancel := context.WithCancel(ctx)
	if err := pool.Start(runCtx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := manager.GetStats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if stats.Completed == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats, err := manager.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Completed != 3 {
		t.Fatalf("expected all 3 jobs completed, got %+v", stats)
	}

	cancel()
	if err := pool.Stop(2 * time.Second); err != nil {
		t.Fatal(err)
	}
}

func TestPoolDoubleStartFails(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	ctx := context.Background()
	if err := store.InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	manager := queue.New(store.New(db), 3)

	exec := &fakeExecutor{results: []bool{true}}
	pool := NewPool(1, manager, exec, Config{PollInterval: time.Second, JobTimeout: time.Second, BackoffBase: 2.0}, silentLogger())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := pool.Start(runCtx); err != nil {
		t.Fatal(err)
	}
	if err := pool.Start(runCtx); err == nil {
		t.Fatal("expected error starting an already-running pool")
	}
	_ = pool.Stop(time.Second)
}
