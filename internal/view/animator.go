package view

import (
	"sync"
	"time"
)

// NextYear is the pure advance-and-wrap step of the animation: one year
// forward, wrapping to min once max is passed. Degenerate ranges collapse to
// min.
func NextYear(current, min, max int) int {
	if max <= min {
		return min
	}
	if current >= max || current < min {
		return min
	}
	return current + 1
}

// Animator advances a FilterState's current year on a fixed cadence while
// playing. Stop is the mandatory cancellation handle: an animator that is
// never stopped leaks its goroutine and keeps mutating state after the owner
// is gone.
type Animator struct {
	state    *FilterState
	interval time.Duration

	mu     sync.Mutex
	done   chan struct{}
	onTick func(year int)
}

// NewAnimator builds a stopped animator over the given state. interval
// defaults to one second when non-positive.
func NewAnimator(state *FilterState, interval time.Duration) *Animator {
	if interval <= 0 {
		interval = time.Second
	}
	return &Animator{state: state, interval: interval}
}

// OnTick registers a callback invoked with the new year after every advance.
// Must be set before Play.
func (a *Animator) OnTick(fn func(year int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTick = fn
}

// Play starts the ticker goroutine. Playing an already playing animator is a
// no-op.
func (a *Animator) Play() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		return
	}
	done := make(chan struct{})
	a.done = done
	tick := a.onTick
	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				year := a.state.AdvanceYear()
				if tick != nil {
					tick(year)
				}
			}
		}
	}()
}

// Stop halts the ticker goroutine. Safe to call repeatedly and on a stopped
// animator.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return
	}
	close(a.done)
	a.done = nil
}

// Playing reports whether the animator is currently advancing.
func (a *Animator) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}
