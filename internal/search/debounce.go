package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a pending value is committed.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer holds the latest pushed value and commits it once no new value
// has arrived for the configured delay. Each push stops the previous timer.
type Debouncer[T any] struct {
	delay  time.Duration
	commit func(T)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer that calls commit after delay of quiet.
// A non-positive delay uses DefaultDebounce.
func NewDebouncer[T any](delay time.Duration, commit func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, commit: commit}
}

// Push replaces the pending value and restarts the quiet period.
// Pushes after Stop are ignored.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, v) })
}

func (d *Debouncer[T]) fire(seq uint64, v T) {
	d.mu.Lock()
	if d.stopped || d.seq != seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.commit(v)
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending commit. It is safe to call more than once.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
