// Command queuectl-worker is the re-exec target worker.ProcessPool
// shells out to for each child process. It is not a general-purpose
// CLI: it takes one flag (--config), re-derives config.Config, opens
// its own store connection, and runs a single worker.Worker until it
// receives SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/ArshdKhan/queuectl/config"
	"github.com/ArshdKhan/queuectl/executor"
	"github.com/ArshdKhan/queuectl/queue"
	"github.com/ArshdKhan/queuectl/store"
	"github.com/ArshdKhan/queuectl/worker"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config.toml")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	sqlDB, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)", cfg.DBPath))
	if err != nil {
		log.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	defer db.Close()

	ctx, cancel := worker.NotifyContext(context.Background())
	defer cancel()

	if err := store.InitSchema(ctx, db); err != nil {
		log.Error("failed to initialize schema", "err", err)
		os.Exit(1)
	}

	backend := store.New(db)
	manager := queue.New(backend, cfg.MaxRetries)

	id := uuid.NewString()
	w := worker.New(id, manager, executor.Shell{}, worker.Config{
		PollInterval: cfg.PollInterval(),
		JobTimeout:   cfg.Timeout(),
		BackoffBase:  cfg.BackoffBase,
	}, log)

	if err := w.Start(ctx); err != nil {
		log.Error("failed to start worker", "err", err)
		os.Exit(1)
	}
	log.Info("worker started", "worker_id", id, "pid", os.Getpid())

	// A child re-exec'd by worker.ProcessPool runs its own janitor there
	// instead: one sweeper for the whole fleet, not one per child.
	var jan *worker.Janitor
	if os.Getenv("QUEUECTL_WORKER") != "1" {
		jan = worker.NewJanitor(backend, cfg.Lease(), worker.SweepInterval(cfg.Lease()), log)
		if err := jan.Start(ctx); err != nil {
			log.Error("failed to start janitor", "err", err)
			os.Exit(1)
		}
		log.Info("janitor started", "lease", cfg.Lease())
	}

	<-ctx.Done()
	log.Info("shutdown signal received, stopping worker", "worker_id", id)
	if jan != nil {
		if err := jan.Stop(5 * time.Second); err != nil {
			log.Error("janitor did not stop cleanly", "err", err)
		}
	}
	if err := w.Stop(30 * time.Second); err != nil {
		log.Error("worker did not stop cleanly", "err", err)
		os.Exit(1)
	}
}
