package throttle

import (
	"sync"
	"time"
)

// Throttle coalesces bursts of Trigger calls into at most one callback
// invocation per window, firing on the trailing edge. Flush cancels the
// pending window and fires immediately so urgent updates are never absorbed
// into a later coalesced publish.
type Throttle struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// New creates a throttle that invokes fn at most once per window.
func New(window time.Duration, fn func()) *Throttle {
	return &Throttle{
		window: window,
		fn:     fn,
	}
}

// Trigger schedules a trailing-edge invocation. Calls made while a window
// is already pending are coalesced into that window's single invocation.
func (t *Throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.window, t.fire)
}

// Flush cancels any pending window and invokes the callback synchronously.
func (t *Throttle) Flush() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.fn()
}

// Stop cancels any pending invocation. Trigger and Flush become no-ops;
// the callback never fires into a torn-down owner.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.fn()
}
