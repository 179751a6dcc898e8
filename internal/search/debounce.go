// Package search implements catalog text search: the two-table pattern
// search and the debounced live search session fed by keystrokes.
package search

import (
	"sync"
	"time"
)

// DefaultQuietInterval is how long input must stay unchanged before a
// search is dispatched
const DefaultQuietInterval = 300 * time.Millisecond

// Timer is a scheduled call that can be stopped
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d
type AfterFunc func(d time.Duration, f func()) Timer

func systemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs only the last of a burst of calls, once the burst has been
// quiet for the configured interval
type Debouncer struct {
	interval  time.Duration
	afterFunc AfterFunc

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewDebouncer creates a debouncer. A nil afterFunc uses time.AfterFunc.
func NewDebouncer(interval time.Duration, afterFunc AfterFunc) *Debouncer {
	if interval <= 0 {
		interval = DefaultQuietInterval
	}
	if afterFunc == nil {
		afterFunc = systemAfterFunc
	}
	return &Debouncer{
		interval:  interval,
		afterFunc: afterFunc,
	}
}

// Trigger cancels any pending call and schedules fn after the quiet interval
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.timer = d.afterFunc(d.interval, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Cancel drops the pending call, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Interval returns the quiet interval
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}
