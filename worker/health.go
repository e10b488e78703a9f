package worker

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// WorkerStatus is a point-in-time liveness snapshot of one process-pool
// child, as seen from the OS process table rather than a heartbeat
// channel — the correct check across a process boundary, since a
// heartbeat can't distinguish "busy" from "dead" the way the OS can.
type WorkerStatus struct {
	PID           int32
	Alive         bool
	LastSeen      time.Time
	JobsProcessed int64
}

// HealthMonitor tracks the liveness of every child spawned by a
// ProcessPool, supplementing the distilled spec with the original
// worker/pool.py's WorkerHealthMonitor.
type HealthMonitor struct {
	mu    sync.Mutex
	procs map[int32]*WorkerStatus
}

// NewHealthMonitor constructs an empty HealthMonitor.
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{procs: make(map[int32]*WorkerStatus)}
}

// Track registers pid for liveness tracking.
func (h *HealthMonitor) Track(pid int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.procs[pid] = &WorkerStatus{PID: pid, Alive: true, LastSeen: time.Now()}
}

// Forget stops tracking pid, normally called once the child has been
// joined.
func (h *HealthMonitor) Forget(pid int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.procs, pid)
}

// RecordJobProcessed increments pid's processed-job counter. ProcessPool
// does not call it, so JobsProcessed stays zero for the children it
// tracks.
func (h *HealthMonitor) RecordJobProcessed(pid int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.procs[pid]; ok {
		s.JobsProcessed++
		s.LastSeen = time.Now()
	}
}

// Check polls the OS process table for every tracked pid and updates
// Alive accordingly. It should be called periodically by the pool's
// supervisory loop.
func (h *HealthMonitor) Check() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for pid, s := range h.procs {
		exists, err := process.PidExists(pid)
		s.Alive = err == nil && exists
	}
}

// Snapshot returns a copy of every tracked worker's current status.
func (h *HealthMonitor) Snapshot() []WorkerStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]WorkerStatus, 0, len(h.procs))
	for _, s := range h.procs {
		out = append(out, *s)
	}
	return out
}
