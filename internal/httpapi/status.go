// Package httpapi serves the operational endpoints of a pipeline process:
// /health, /metrics and /status.
package httpapi

import (
	"sync"
	"time"

	"equity-feature-lab/internal/pipeline"
)

// Status is the JSON body of /status.
type Status struct {
	State     string    `json:"status"`
	Uptime    string    `json:"uptime"`
	RunID     string    `json:"run_id,omitempty"`
	LastRun   time.Time `json:"last_run,omitempty"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	LastError string    `json:"last_error,omitempty"`
}

// Tracker records the progress of batch runs. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	now       func() time.Time
	started   time.Time
	running   bool
	runID     string
	lastRun   time.Time
	succeeded int
	failed    int
	lastError string
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return newTracker(time.Now)
}

func newTracker(now func() time.Time) *Tracker {
	return &Tracker{now: now, started: now().UTC()}
}

// Begin marks a run as in progress.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = true
}

// Finish records the outcome of the run started by Begin.
func (t *Tracker) Finish(result *pipeline.BatchResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.lastRun = t.now().UTC()
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastError = ""
	t.runID = result.RunID
	t.succeeded = len(result.Succeeded)
	t.failed = len(result.Failed)
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Status{
		State:     "idle",
		Uptime:    t.now().UTC().Sub(t.started).Round(time.Second).String(),
		RunID:     t.runID,
		LastRun:   t.lastRun,
		Succeeded: t.succeeded,
		Failed:    t.failed,
		LastError: t.lastError,
	}
	if t.running {
		s.State = "running"
	}
	return s
}
