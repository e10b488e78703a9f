package queue

import (
	"context"
	"errors"
	"time"

	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/metrics"
	"github.com/ArshdKhan/queuectl/store"
)

// Manager is the public façade over a store.Backend: it validates
// preconditions, fills in defaults, and maps storage-level sentinel
// errors onto this package's typed taxonomy. Worker loops and embedding
// applications go through it; the Janitor and the process bootstraps
// (cmd/queuectl-worker, worker.ProcessPool) use store directly.
type Manager struct {
	backend           store.Backend
	defaultMaxRetries uint32
}

// New constructs a Manager. defaultMaxRetries is used for EnqueueOptions
// that omit MaxRetries, normally sourced from config.Config.MaxRetries.
func New(backend store.Backend, defaultMaxRetries uint32) *Manager {
	return &Manager{backend: backend, defaultMaxRetries: defaultMaxRetries}
}

// EnqueueOptions carries the optional fields of Enqueue. A nil field
// takes its default: MaxRetries from the Manager's configured default,
// Priority from job.DefaultPriority, RunAt unset (immediately eligible).
type EnqueueOptions struct {
	MaxRetries *uint32
	Priority   *int
	RunAt      *time.Time
}

// Enqueue validates id and priority, applies defaults, and inserts a
// new job in state Pending. It returns ErrEmptyID, ErrInvalidPriority,
// or ErrDuplicateJob on precondition failure.
func (m *Manager) Enqueue(ctx context.Context, id, command string, opts EnqueueOptions) (*job.Job, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	priority := job.DefaultPriority
	if opts.Priority != nil {
		priority = *opts.Priority
	}
	if priority < job.MinPriority || priority > job.MaxPriority {
		return nil, ErrInvalidPriority
	}

	maxRetries := m.defaultMaxRetries
	if opts.MaxRetries != nil {
		maxRetries = *opts.MaxRetries
	}

	j := &job.Job{
		ID:         id,
		Command:    command,
		State:      job.Pending,
		MaxRetries: maxRetries,
		Priority:   priority,
		RunAt:      opts.RunAt,
	}
	if err := m.backend.InsertJob(ctx, j); err != nil {
		if errors.Is(err, store.ErrDuplicateJob) {
			return nil, ErrDuplicateJob
		}
		return nil, err
	}
	return j, nil
}

// ClaimJob atomically claims the single highest-priority, oldest,
// ready job in state Pending, transitioning it to Processing. It
// returns (nil, nil) when no eligible job exists.
func (m *Manager) ClaimJob(ctx context.Context) (*job.Job, error) {
	return m.backend.Claim(ctx, time.Now().UTC())
}

// MarkCompleted transitions id to Completed, recording the execution
// duration.
func (m *Manager) MarkCompleted(ctx context.Context, id string, duration time.Duration) error {
	return translate(m.backend.MarkCompleted(ctx, id, duration.Milliseconds()))
}

// MarkPending transitions id back to Pending with the incremented
// attempts count and failure reason, ready to be claimed immediately.
// The caller is responsible for having already slept the backoff delay
// (job.CalculateBackoff) before calling this.
func (m *Manager) MarkPending(ctx context.Context, id string, attempts uint32, errMsg string) error {
	return translate(m.backend.MarkPending(ctx, id, attempts, errMsg))
}

// MarkDead transitions id to Dead, recording the final failure reason.
func (m *Manager) MarkDead(ctx context.Context, id string, attempts uint32, errMsg string) error {
	return translate(m.backend.MarkDead(ctx, id, attempts, errMsg))
}

// RetryDLQJob moves id from Dead back to Pending, resetting Attempts to
// zero and clearing the error message. It fails with ErrJobNotFound if
// id does not exist, or ErrInvalidJobState if id's current state is not
// Dead.
func (m *Manager) RetryDLQJob(ctx context.Context, id string) error {
	return translate(m.backend.RetryDLQJob(ctx, id))
}

// GetJob returns the current snapshot of id.
func (m *Manager) GetJob(ctx context.Context, id string) (*job.Job, error) {
	j, err := m.backend.GetJob(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return j, nil
}

// ListJobs returns every job in state, or every job if state is
// job.Unknown.
func (m *Manager) ListJobs(ctx context.Context, state job.State) ([]*job.Job, error) {
	return m.backend.ListJobs(ctx, state)
}

// Stats is the zero-filled per-state job count returned by GetStats.
type Stats struct {
	Pending    int64
	Processing int64
	Completed  int64
	Dead       int64
}

// GetStats returns job counts per state, zero-filled for states with
// no jobs.
func (m *Manager) GetStats(ctx context.Context) (Stats, error) {
	counts, err := m.backend.CountsByState(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Pending:    counts[job.Pending],
		Processing: counts[job.Processing],
		Completed:  counts[job.Completed],
		Dead:       counts[job.Dead],
	}, nil
}

// GetMetrics returns the metrics summary verbatim from the store.
func (m *Manager) GetMetrics(ctx context.Context, recentLimit int) (*metrics.Summary, error) {
	return m.backend.MetricsSummary(ctx, recentLimit)
}

// translate maps store-level sentinel errors onto this package's
// taxonomy so callers never need to import store directly.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrJobNotFound):
		return ErrJobNotFound
	case errors.Is(err, store.ErrInvalidJobState):
		return ErrInvalidJobState
	case errors.Is(err, store.ErrDuplicateJob):
		return ErrDuplicateJob
	default:
		return err
	}
}
