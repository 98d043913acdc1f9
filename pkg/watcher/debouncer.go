// Package watcher detects cover profile changes on disk and coalesces
// bursts of filesystem events into single rebuild signals.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the default debounce window. Test runs rewrite
// the profile in several quick writes; one window covers a whole run.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces a burst of triggers into one callback: each Trigger
// restarts the window, and only the callback from the last Trigger in a
// burst runs once the window elapses.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64 // bumped on every Trigger/Cancel to invalidate stale timers
}

// NewDebouncer creates a Debouncer. A zero window means
// DefaultDebounceDuration.
func NewDebouncer(window time.Duration) *Debouncer {
	if window == 0 {
		window = DefaultDebounceDuration
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the window. Another Trigger before
// the window elapses supersedes the previous schedule.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		if d.claim(gen) {
			fn()
		}
	})
}

// claim reports whether a firing timer is still the current schedule.
// Stop can miss a timer that has already fired; the generation check
// keeps that stale callback from running.
func (d *Debouncer) claim(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return false
	}
	d.timer = nil
	return true
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce window.
func (d *Debouncer) Duration() time.Duration {
	return d.window
}
