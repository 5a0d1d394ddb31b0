// Package watchdog implements the periodic, informational-only deadlock
// watchdog described in spec.md §4.8, grounded on the original source's
// thread_util deadlock-detector thread in original_source/src/main.rs.
//
// No retrieved example repo wires in a third-party deadlock-detection or
// lock-tracking library; this stays on the standard library's time.Ticker
// and sync.Mutex, which DESIGN.md records as the justified exception.
package watchdog

import (
	"sync"
	"time"

	"github.com/eruption-linux/eruption-core/logging"
)

// LockTracker records, for a fixed set of named locks, how long the
// current holder (if any) has held it. It is deliberately coarse: a
// single timestamp per named lock, updated by the holder itself around
// each critical section, matching the "best-effort, advisory" character
// spec.md §4.8 assigns the watchdog.
type LockTracker struct {
	mu    sync.Mutex
	held  map[string]time.Time
}

// NewLockTracker creates an empty tracker.
func NewLockTracker() *LockTracker {
	return &LockTracker{held: make(map[string]time.Time)}
}

// Acquire records that name was locked now. Call it immediately after
// taking the real lock.
func (t *LockTracker) Acquire(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held[name] = nowFunc()
}

// Release clears name's recorded hold time. Call it immediately before
// releasing the real lock.
func (t *LockTracker) Release(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, name)
}

// HeldLongerThan returns the names of locks that have been continuously
// held for at least d, as of now.
func (t *LockTracker) HeldLongerThan(d time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := nowFunc()
	var stuck []string
	for name, since := range t.held {
		if now.Sub(since) >= d {
			stuck = append(stuck, name)
		}
	}
	return stuck
}

// nowFunc is a var, not a direct time.Now call, purely so tests can
// substitute a deterministic clock without sleeping real wall time.
var nowFunc = time.Now

// Watchdog periodically checks a LockTracker and logs a warning for any
// lock held past Threshold. It never takes corrective action: spec.md
// §4.8 is explicit that the watchdog is diagnostic only, never a
// deadlock-breaker.
type Watchdog struct {
	tracker   *LockTracker
	threshold time.Duration
	interval  time.Duration
	log       *logging.Logger
	stop      chan struct{}
	done      chan struct{}
}

// DefaultThreshold matches the original source's hard-coded five-second
// stuck-lock warning threshold.
const DefaultThreshold = 5 * time.Second

// DefaultInterval is how often the watchdog polls.
const DefaultInterval = time.Second

// New creates a Watchdog. It does not start running until Run is called.
func New(tracker *LockTracker, threshold, interval time.Duration, log *logging.Logger) *Watchdog {
	return &Watchdog{
		tracker:   tracker,
		threshold: threshold,
		interval:  interval,
		log:       log,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run blocks, polling until Stop is called. It is meant to be launched on
// its own goroutine.
func (w *Watchdog) Run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			for _, name := range w.tracker.HeldLongerThan(w.threshold) {
				w.log.Warnf("lock %q has been held for at least %s", name, w.threshold)
			}
		}
	}
}

// Stop signals Run to return and waits for it to do so.
func (w *Watchdog) Stop() {
	close(w.stop)
	<-w.done
}
