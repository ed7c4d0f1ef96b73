// Package scheduler provides the deferred-task timer used for auto-save.
package scheduler

import (
	"sync"
	"time"

	"github.com/Rysh-29/Neuromap/application/ports"
)

// Debouncer runs the most recently scheduled task once the delay has passed
// without another Schedule call. At most one task is pending at a time.
type Debouncer struct {
	mu         sync.Mutex
	delay      time.Duration
	timer      *time.Timer
	task       func()
	generation uint64
}

var _ ports.Scheduler = (*Debouncer)(nil)

// NewDebouncer creates a debouncer with the given delay
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Delay returns the configured delay
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending task and restarts the delay
func (d *Debouncer) Schedule(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.task = task
	generation := d.generation
	d.timer = time.AfterFunc(d.delay, func() { d.fire(generation) })
}

// Cancel drops the pending task without running it
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.task = nil
}

// Flush runs the pending task immediately on the calling goroutine
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	task := d.task
	d.stopLocked()
	d.task = nil
	d.mu.Unlock()

	if task == nil {
		return false
	}
	task()
	return true
}

// Pending reports whether a task is waiting to run
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

func (d *Debouncer) fire(generation uint64) {
	d.mu.Lock()
	if generation != d.generation || d.task == nil {
		// Superseded by a later Schedule, Cancel or Flush.
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()

	task()
}

// stopLocked stops the timer and invalidates any callback already in flight
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}
