// Package store provides the durable SQLite-backed job store and its
// atomic claim query — the primitive the whole engine's correctness
// rests on.
//
// Store is built on github.com/uptrace/bun over modernc.org/sqlite.
// Every write path opens its transaction through beginImmediate and
// relies on the connection pool being capped to one connection
// (SetMaxOpenConns(1), required of every caller) to get the same
// effect as an immediate write lock: with a single shared connection,
// no two transactions can ever be open concurrently, closing the race
// window two concurrent claimers could otherwise hit. See util.go for
// why this replaces a literal BEGIN IMMEDIATE statement. Read paths
// (GetJob, ListJobs, CountsByState, MetricsSummary) use the shared
// *bun.DB directly and may observe a snapshot slightly behind the
// latest commit.
package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
)

// Backend is the capability set the queue package depends on. Store is
// the only implementation shipped, but queue.Manager is written
// against this interface so an alternative relational backend (a
// different bun.Dialect, or a hand-rolled database/sql implementation)
// can be substituted without touching state-machine logic.
type Backend interface {
	InsertJob(ctx context.Context, j *job.Job) error
	Claim(ctx context.Context, now time.Time) (*job.Job, error)
	MarkCompleted(ctx context.Context, id string, durationMs int64) error
	MarkPending(ctx context.Context, id string, attempts uint32, errMsg string) error
	MarkDead(ctx context.Context, id string, attempts uint32, errMsg string) error
	RetryDLQJob(ctx context.Context, id string) error
	UpdateJob(ctx context.Context, id string, fields Fields) error
	GetJob(ctx context.Context, id string) (*job.Job, error)
	ListJobs(ctx context.Context, state job.State) ([]*job.Job, error)
	CountsByState(ctx context.Context) (map[job.State]int64, error)
	RecordMetric(ctx context.Context, e *metrics.Event) error
	MetricsSummary(ctx context.Context, recentLimit int) (*metrics.Summary, error)
}

// Store implements Backend using a bun.DB-managed SQLite database.
type Store struct {
	db *bun.DB
}

// New wraps an already-opened and schema-initialized *bun.DB. Callers
// are responsible for connection configuration (WAL mode,
// busy_timeout, SetMaxOpenConns(1) for SQLite) and for calling
// InitSchema before first use.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

var _ Backend = (*Store)(nil)
