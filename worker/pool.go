package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ArshdKhan/queuectl/executor"
	"github.com/ArshdKhan/queuectl/internal"
	"github.com/ArshdKhan/queuectl/queue"
)

// Pool runs N Workers as goroutines sharing one *queue.Manager
// connection. It is the embedding-friendly variant: tests and
// in-process applications use Pool directly; the detached CLI surface
// uses ProcessPool instead for genuine crash isolation between workers
// (see process_pool.go).
type Pool struct {
	internal.Lifecycle
	size    int
	manager *queue.Manager
	exec    executor.Executor
	config  Config
	log     *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
	done   internal.DoneChan
}

// NewPool constructs a Pool of size Workers, all claiming from the
// same manager.
func NewPool(size int, manager *queue.Manager, exec executor.Executor, config Config, log *slog.Logger) *Pool {
	return &Pool{size: size, manager: manager, exec: exec, config: config, log: log}
}

// Start spawns size Worker goroutines, each with its own uuid identity
// for log attribution.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.TryStart(); err != nil {
		return err
	}
	ctx, p.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	p.group = group
	p.done = make(internal.DoneChan)

	workers := make([]*Worker, p.size)
	for i := range workers {
		workers[i] = New(uuid.NewString(), p.manager, p.exec, p.config, p.log)
	}
	for _, w := range workers {
		if err := w.Start(gctx); err != nil {
			return err
		}
		group.Go(func() error {
			<-gctx.Done()
			return w.Stop(30 * time.Second)
		})
	}

	go func() {
		_ = group.Wait()
		close(p.done)
	}()
	p.log.Info("worker pool started", "workers", p.size)
	return nil
}

// Stop requests all Workers to shut down and waits up to timeout for
// every one of them to join.
func (p *Pool) Stop(timeout time.Duration) error {
	return p.TryStop(timeout, func() internal.DoneChan {
		p.cancel()
		return p.done
	})
}
