package calls

import (
	"sync"
	"time"
)

// DurationTimer counts elapsed whole seconds for an active session.
//
// It is an owned resource: the session that starts it must stop it on
// every terminal transition. Stop is idempotent and returns the frozen
// value, so double-stops on racing exit paths are harmless.
type DurationTimer struct {
	mu      sync.Mutex
	elapsed int
	stopped bool
	stop    chan struct{}
}

// StartDurationTimer begins counting immediately. interval exists so tests
// can tick faster than wall-clock seconds; production passes time.Second.
func StartDurationTimer(interval time.Duration) *DurationTimer {
	if interval <= 0 {
		interval = time.Second
	}
	t := &DurationTimer{stop: make(chan struct{})}

	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				t.mu.Lock()
				if !t.stopped {
					t.elapsed++
				}
				t.mu.Unlock()
			case <-t.stop:
				return
			}
		}
	}()

	return t
}

// Elapsed returns the current count without stopping.
func (t *DurationTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Stop halts counting and returns the frozen value. Safe to call more
// than once; later calls return the same value.
func (t *DurationTimer) Stop() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		close(t.stop)
	}
	return t.elapsed
}
