package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ArshdKhan/queuectl/internal"
	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/store"
)

// ErrJobLeaseExpired marks a job reclaimed by the Janitor in log
// output; it never escapes to a store or queue client.
var ErrJobLeaseExpired = errors.New("worker: processing job lease expired")

// Janitor periodically reclaims jobs stuck in Processing whose
// updated_at is older than lease, returning them to Pending so a
// worker can claim them again. It exists because spec.md's core
// claim/commit protocol has no crash-recovery story for a worker that
// dies mid-job: the job sits in Processing forever unless something
// like Janitor re-observes it (see §9 Open Question "orphaned
// processing jobs"). It is started alongside the worker loop by
// cmd/queuectl-worker and by worker.ProcessPool, so the reclaim
// actually runs in production rather than only in tests.
//
// Janitor embeds a Lifecycle for strict start/stop semantics and runs
// its own cancellable ticker loop, the same self-rolled shape
// Worker.run uses rather than a shared generic timer abstraction.
type Janitor struct {
	internal.Lifecycle
	backend  store.Backend
	log      *slog.Logger
	lease    time.Duration
	interval time.Duration

	cancel context.CancelFunc
	done   internal.DoneChan
}

// NewJanitor constructs a Janitor. lease is the age threshold past
// which a Processing job is considered orphaned; interval is how often
// the sweep runs. SweepInterval derives a reasonable interval from a
// lease if the caller has no stronger opinion.
func NewJanitor(backend store.Backend, lease, interval time.Duration, log *slog.Logger) *Janitor {
	return &Janitor{backend: backend, lease: lease, interval: interval, log: log}
}

// SweepInterval derives a sweep cadence from a lease window: a quarter
// of the lease, floored at 30s so a short lease (as configured in
// tests) doesn't spin the ticker needlessly.
func SweepInterval(lease time.Duration) time.Duration {
	interval := lease / 4
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}
	return interval
}

func (j *Janitor) sweep(ctx context.Context) {
	jobs, err := j.backend.ListJobs(ctx, job.Processing)
	if err != nil {
		j.log.Error("janitor: list processing jobs failed", "err", err)
		return
	}

	cutoff := time.Now().UTC().Add(-j.lease)
	reclaimed := 0
	for _, jb := range jobs {
		if jb.UpdatedAt.After(cutoff) {
			continue
		}
		err := j.backend.UpdateJob(ctx, jb.ID, store.Fields{
			State:      job.Pending,
			UpdatedAt:  time.Now().UTC(),
			ClearRunAt: true,
		})
		if err != nil {
			j.log.Error("janitor: reclaim failed", "job_id", jb.ID, "err", err)
			continue
		}
		j.log.Warn("janitor: reclaimed orphaned processing job", "job_id", jb.ID, "age", time.Since(jb.UpdatedAt), "reason", ErrJobLeaseExpired)
		reclaimed++
	}
	if reclaimed > 0 {
		j.log.Info("janitor: swept processing jobs", "reclaimed", reclaimed, "scanned", len(jobs))
	}
}

// Start begins the periodic reclaim sweep: an immediate sweep, then
// one on every tick of interval until Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	if err := j.TryStart(); err != nil {
		return err
	}
	j.done = make(internal.DoneChan)
	ctx, j.cancel = context.WithCancel(ctx)
	go j.run(ctx)
	return nil
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

// Stop terminates the sweep, waiting up to timeout for the current
// sweep to finish.
func (j *Janitor) Stop(timeout time.Duration) error {
	return j.TryStop(timeout, func() internal.DoneChan {
		j.cancel()
		return j.done
	})
}
