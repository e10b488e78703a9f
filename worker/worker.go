// Package worker runs the sequential claim/execute/commit loop against
// a queue.Manager, supervises pools of such loops, and reclaims jobs
// orphaned by a crashed worker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ArshdKhan/queuectl/executor"
	"github.com/ArshdKhan/queuectl/internal"
	"github.com/ArshdKhan/queuectl/job"
	"github.com/ArshdKhan/queuectl/queue"
)

// Config defines the runtime parameters of a Worker, mirroring
// config.Config's worker-relevant fields without importing the config
// package directly (Worker is embeddable independent of how its caller
// manages configuration).
type Config struct {
	PollInterval time.Duration
	JobTimeout   time.Duration
	BackoffBase  float64
}

// Worker runs a single sequential claim -> execute -> commit loop. It
// never has more than one job in flight; parallelism comes from
// running multiple Workers (worker.Pool), not from concurrency inside
// one.
//
// Unlike Janitor's fixed-interval ticker, Worker reclaims immediately
// after finishing a job and only sleeps PollInterval when a claim
// comes back empty — matching the loop's "claim, and only sleep if
// nothing was found" shape.
type Worker struct {
	internal.Lifecycle
	manager  *queue.Manager
	executor executor.Executor
	log      *slog.Logger
	config   Config

	cancel context.CancelFunc
	done   internal.DoneChan

	// id identifies this worker in log lines; normally a google/uuid
	// string assigned by the owning Pool.
	id string
}

// New constructs a Worker. id is an opaque identity used only for log
// attribution (worker.Pool assigns a uuid per child).
func New(id string, manager *queue.Manager, exec executor.Executor, config Config, log *slog.Logger) *Worker {
	return &Worker{
		manager:  manager,
		executor: exec,
		config:   config,
		log:      log.With("worker_id", id),
		id:       id,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		if ctx.Err() != nil {
			return
		}
		j, err := w.manager.ClaimJob(ctx)
		if err != nil {
			w.log.Error("claim failed", "err", err)
			if !w.sleep(ctx, w.config.PollInterval) {
				return
			}
			continue
		}
		if j == nil {
			if !w.sleep(ctx, w.config.PollInterval) {
				return
			}
			continue
		}
		w.runJob(ctx, j)
	}
}

func (w *Worker) runJob(ctx context.Context, j *job.Job) {
	start := time.Now()
	ok, errMsg := w.executor.Execute(ctx, j.Command, w.config.JobTimeout)
	duration := time.Since(start)

	if ok {
		if err := w.manager.MarkCompleted(ctx, j.ID, duration); err != nil {
			w.log.Error("mark_completed failed", "job_id", j.ID, "err", err)
		}
		w.log.Info("job completed", "job_id", j.ID, "duration", duration)
		return
	}

	attempts := j.Attempts + 1
	if (&job.Job{Attempts: attempts, MaxRetries: j.MaxRetries}).ShouldRetry() {
		delay := job.CalculateBackoff(w.config.BackoffBase, j.Attempts)
		w.log.Warn("job failed, retrying", "job_id", j.ID, "attempts", attempts, "delay", delay, "err", errMsg)
		if !w.sleep(ctx, delay) {
			return
		}
		if err := w.manager.MarkPending(ctx, j.ID, attempts, errMsg); err != nil {
			w.log.Error("mark_pending failed", "job_id", j.ID, "err", err)
		}
		return
	}

	w.log.Warn("job exhausted retries, moving to dead letter queue", "job_id", j.ID, "attempts", attempts, "err", errMsg)
	if err := w.manager.MarkDead(ctx, j.ID, attempts, errMsg); err != nil {
		w.log.Error("mark_dead failed", "job_id", j.ID, "err", err)
	}
}

// sleep blocks for d or until ctx is canceled, whichever comes first.
// It reports whether the full delay elapsed (false means shutdown was
// requested mid-wait).
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Start begins the claim loop in its own goroutine. It returns
// internal.ErrDoubleStarted if the worker is already running.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.TryStart(); err != nil {
		return err
	}
	w.done = make(internal.DoneChan)
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return nil
}

// Stop requests graceful shutdown. A job already inside Execute is not
// interrupted by Stop; shutdown completes once the current loop
// iteration reaches its next cancellation check, or timeout elapses,
// whichever is first.
func (w *Worker) Stop(timeout time.Duration) error {
	return w.TryStop(timeout, func() internal.DoneChan {
		w.cancel()
		return w.done
	})
}
