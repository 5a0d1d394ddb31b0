// Package canvas holds the shared, mutex-guarded LED canvas and the blend
// barrier that orders its composition. Both the scheduler and the VM bank
// depend on this package, so it is kept free of any dependency on either
// of them.
package canvas

import (
	"sync"

	"github.com/eruption-linux/eruption-core/blend"
	"github.com/eruption-linux/eruption-core/watchdog"
)

// lockName is the name under which the canvas's mutex is reported to a
// watchdog.LockTracker, if one is attached.
const lockName = "canvas"

// Canvas is the single, process-wide destination Pixel sequence. Outside
// the composition phase of a tick it is either all-zero (just cleared) or
// holds the last pushed frame, per spec.md §3.
type Canvas struct {
	mu      sync.Mutex
	pixels  []blend.Pixel
	tracker *watchdog.LockTracker
}

// New creates a Canvas of the given length, cleared to Zero.
func New(numKeys int) *Canvas {
	return &Canvas{pixels: make([]blend.Pixel, numKeys)}
}

// SetTracker attaches a watchdog.LockTracker that every subsequent
// Clear/BlendLayer critical section reports its hold time to, so the
// deadlock watchdog (spec.md §4.8) has something to observe on the one
// piece of cross-thread mutable state the core defines. Passing nil
// detaches tracking.
func (c *Canvas) SetTracker(tracker *watchdog.LockTracker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker = tracker
}

// Len returns the canvas length (NUM_KEYS).
func (c *Canvas) Len() int {
	return len(c.pixels)
}

// Clear resets every pixel to blend.Zero. Called once per tick at the
// start of the composition phase.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackAcquire()
	defer c.trackRelease()
	for i := range c.pixels {
		c.pixels[i] = blend.Zero
	}
}

// BlendLayer composites layer onto the canvas in place using blend.Over,
// one VM at a time. layer must be the same length as the canvas.
func (c *Canvas) BlendLayer(layer []blend.Pixel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackAcquire()
	defer c.trackRelease()
	n := len(c.pixels)
	if len(layer) < n {
		n = len(layer)
	}
	for i := 0; i < n; i++ {
		c.pixels[i] = blend.Over(layer[i], c.pixels[i])
	}
}

func (c *Canvas) trackAcquire() {
	if c.tracker != nil {
		c.tracker.Acquire(lockName)
	}
}

func (c *Canvas) trackRelease() {
	if c.tracker != nil {
		c.tracker.Release(lockName)
	}
}

// Snapshot returns a copy of the current canvas contents, safe to hand to
// a device adapter after composition ends.
func (c *Canvas) Snapshot() []blend.Pixel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]blend.Pixel, len(c.pixels))
	copy(out, c.pixels)
	return out
}
