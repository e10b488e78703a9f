package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/ArshdKhan/queuectl/config"
	"github.com/ArshdKhan/queuectl/store"
)

// healthCheckInterval is how often supervise polls the OS process
// table for every tracked child.
const healthCheckInterval = 10 * time.Second

// reexecEnvFlag is set in a child's environment so cmd/queuectl-worker
// recognizes it is being run as a queuectl worker child rather than
// invoked directly.
const reexecEnvFlag = "QUEUECTL_WORKER=1"

// ProcessPool supervises N independent OS processes, each running this
// same binary re-invoked with reexecEnvFlag set, and each loading its
// own Config and opening its own store connection. Go has no portable
// fork(); re-executing the binary is how this engine gets the crash
// isolation the original multiprocessing.Process design relied on.
type ProcessPool struct {
	size       int
	dbPath     string
	configPath string
	health     *HealthMonitor
	log        *slog.Logger
	pidFile    string

	mu      sync.Mutex
	cmds    []*exec.Cmd
	cancel  context.CancelFunc
	stopped chan struct{}

	db      *bun.DB
	janitor *Janitor
}

// NewProcessPool constructs a ProcessPool of size children. configPath
// is passed to each child so it loads the same configuration; dbPath
// determines where the PID manifest (workers.pid) is written alongside
// the store file.
func NewProcessPool(size int, configPath, dbPath string, log *slog.Logger) *ProcessPool {
	return &ProcessPool{
		size:       size,
		dbPath:     dbPath,
		configPath: configPath,
		health:     NewHealthMonitor(),
		log:        log,
		pidFile:    filepath.Join(filepath.Dir(dbPath), "workers.pid"),
	}
}

// StartDetached prints the startup banner, then starts the pool. It is
// the entry point for launching queuectl as a long-running detached
// process tree rather than embedding ProcessPool in a larger program.
func (p *ProcessPool) StartDetached(ctx context.Context, cfg *config.Config) error {
	PrintBanner(cfg, p.size)
	return p.Start(ctx, cfg)
}

// Start spawns size child processes, each re-executing the current
// binary, and starts a single Janitor sweeping on the parent process's
// own store connection — one sweeper for the whole fleet, rather than
// one per re-exec'd child. It writes the PID manifest (this process's
// PID followed by each child's) before returning.
func (p *ProcessPool) Start(ctx context.Context, cfg *config.Config) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("worker: resolve self executable: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)", cfg.DBPath))
	if err != nil {
		return fmt.Errorf("worker: open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	p.db = bun.NewDB(sqlDB, sqlitedialect.New())
	if err := store.InitSchema(ctx, p.db); err != nil {
		return fmt.Errorf("worker: init schema: %w", err)
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.stopped = make(chan struct{})

	p.janitor = NewJanitor(store.New(p.db), cfg.Lease(), SweepInterval(cfg.Lease()), p.log)
	if err := p.janitor.Start(ctx); err != nil {
		return fmt.Errorf("worker: start janitor: %w", err)
	}

	pids := []int{os.Getpid()}
	for i := 0; i < p.size; i++ {
		cmd := exec.CommandContext(ctx, self, "--config", p.configPath)
		cmd.Env = append(os.Environ(), reexecEnvFlag)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("worker: spawn child %d: %w", i, err)
		}
		p.cmds = append(p.cmds, cmd)
		p.health.Track(int32(cmd.Process.Pid))
		pids = append(pids, cmd.Process.Pid)
		p.log.Info("worker process started", "pid", cmd.Process.Pid)
	}

	if err := p.writePIDFile(pids); err != nil {
		p.log.Error("failed to write pid manifest", "err", err)
	}

	go p.supervise(ctx)
	return nil
}

func (p *ProcessPool) writePIDFile(pids []int) error {
	if err := os.MkdirAll(filepath.Dir(p.pidFile), 0o755); err != nil {
		return err
	}
	lines := make([]string, len(pids))
	for i, pid := range pids {
		lines[i] = strconv.Itoa(pid)
	}
	return os.WriteFile(p.pidFile, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

func (p *ProcessPool) supervise(ctx context.Context) {
	defer close(p.stopped)
	var wg sync.WaitGroup
	for _, cmd := range p.cmds {
		wg.Add(1)
		go func(cmd *exec.Cmd) {
			defer wg.Done()
			pid := cmd.Process.Pid
			_ = cmd.Wait()
			p.health.Forget(int32(pid))
			p.log.Info("worker process exited", "pid", pid)
		}(cmd)
	}

	allExited := make(chan struct{})
	go func() {
		wg.Wait()
		close(allExited)
	}()

	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-allExited:
			_ = os.Remove(p.pidFile)
			return
		case <-ticker.C:
			p.health.Check()
			for _, s := range p.health.Snapshot() {
				if !s.Alive {
					p.log.Warn("worker process unresponsive", "pid", s.PID, "last_seen", s.LastSeen)
				}
			}
		}
	}
}

// Stop signals shutdown and waits up to timeout for every child to
// exit, then escalates per the documented shutdown protocol: SIGTERM,
// then SIGKILL 5 seconds later if still alive.
func (p *ProcessPool) Stop(timeout time.Duration) error {
	p.mu.Lock()
	cmds := append([]*exec.Cmd(nil), p.cmds...)
	p.mu.Unlock()

	for _, cmd := range cmds {
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	waited := false
	select {
	case <-p.stopped:
		waited = true
	case <-time.After(timeout):
	}

	if !waited {
		for _, cmd := range cmds {
			_ = cmd.Process.Signal(syscall.SIGTERM)
		}
		select {
		case <-p.stopped:
		case <-time.After(5 * time.Second):
			for _, cmd := range cmds {
				_ = cmd.Process.Kill()
			}
			<-p.stopped
		}
	}

	if p.janitor != nil {
		if err := p.janitor.Stop(5 * time.Second); err != nil {
			p.log.Error("janitor did not stop cleanly", "err", err)
		}
	}
	if p.db != nil {
		_ = p.db.Close()
	}
	return nil
}

// NotifyContext returns a context canceled on SIGINT/SIGTERM, used by
// the pool's owner to trigger Stop.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
