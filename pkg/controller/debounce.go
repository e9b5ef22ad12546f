package controller

import (
	"sync"
	"time"
)

// Debounce buffers rapid changes and commits only the last one after delay.
// A zero delay commits immediately. Flush commits a pending value now.
type Debounce struct {
	mu      sync.Mutex
	delay   time.Duration
	commit  func(value any)
	timer   *time.Timer
	pending any
	waiting bool
}

// NewDebounce wraps commit.
func NewDebounce(delay time.Duration, commit func(value any)) *Debounce {
	return &Debounce{delay: delay, commit: commit}
}

// Change records value and restarts the delay.
func (d *Debounce) Change(value any) {
	d.mu.Lock()
	d.pending = value
	d.waiting = true
	if d.delay <= 0 {
		d.mu.Unlock()
		d.Flush()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.Flush)
	d.mu.Unlock()
}

// Pending returns the buffered value, if any.
func (d *Debounce) Pending() (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.waiting
}

// Flush commits the buffered value, if any.
func (d *Debounce) Flush() {
	d.mu.Lock()
	if !d.waiting {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.pending = nil
	d.waiting = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if d.commit != nil {
		d.commit(value)
	}
}

// Stop drops any buffered value without committing it.
func (d *Debounce) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.waiting = false
}
