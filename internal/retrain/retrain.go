package retrain

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("a retraining run is already in progress")
	ErrNoCommand      = errors.New("no retrain command configured")
)

// Result is the outcome of a retraining run.
type Result struct {
	Success    bool      `json:"success"`
	Output     string    `json:"output"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Task is a handle to an in-flight retraining run.
type Task struct {
	done   chan struct{}
	result Result
}

// Wait blocks until the run finishes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Runner triggers AI model retraining as a bounded external command. At most
// one run is in flight at a time; the last result is kept for the status
// endpoint.
type Runner struct {
	command []string
	timeout time.Duration

	mu      sync.Mutex
	running bool
	last    *Result
}

func NewRunner(command []string, timeout time.Duration) *Runner {
	return &Runner{
		command: command,
		timeout: timeout,
	}
}

// Trigger starts a retraining run in the background and returns a task handle
// immediately. The run is killed when it exceeds the configured timeout.
func (r *Runner) Trigger(ctx context.Context) (*Task, error) {
	if len(r.command) == 0 {
		return nil, ErrNoCommand
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	task := &Task{done: make(chan struct{})}

	go func() {
		defer close(task.done)

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		res := Result{StartedAt: time.Now()}

		cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...)
		out, err := cmd.CombinedOutput()
		res.Output = strings.TrimSpace(string(out))
		res.FinishedAt = time.Now()

		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
		}

		task.result = res

		r.mu.Lock()
		r.running = false
		r.last = &res
		r.mu.Unlock()
	}()

	return task, nil
}

// LastResult returns the most recent finished run, if any.
func (r *Runner) LastResult() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

// Running reports whether a run is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
