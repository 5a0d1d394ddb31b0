package device

import (
	"sync"

	"github.com/eruption-linux/eruption-core/blend"
)

// LoopbackHandle is a reference Handle implementation that records every
// frame it is sent instead of talking to real hardware. It is used by the
// test suite and by the CLI when no concrete driver is wired in.
type LoopbackHandle struct {
	descriptor Descriptor
	numKeys    int

	mu     sync.Mutex
	frames [][]blend.Pixel
	closed bool
}

var _ Handle = (*LoopbackHandle)(nil)

// NewLoopbackHandle creates a LoopbackHandle for a device with numKeys LEDs.
func NewLoopbackHandle(descriptor Descriptor, numKeys int) *LoopbackHandle {
	return &LoopbackHandle{descriptor: descriptor, numKeys: numKeys}
}

func (h *LoopbackHandle) Descriptor() Descriptor { return h.descriptor }
func (h *LoopbackHandle) NumKeys() int            { return h.numKeys }

func (h *LoopbackHandle) SendInitSequence() error  { return nil }
func (h *LoopbackHandle) SetLEDInitPattern() error { return nil }

// SendLEDMap stores a copy of canvas so later mutation of the caller's
// slice can't corrupt a previously "sent" frame.
func (h *LoopbackHandle) SendLEDMap(canvas []blend.Pixel) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	frame := make([]blend.Pixel, len(canvas))
	copy(frame, canvas)
	h.frames = append(h.frames, frame)
	return nil
}

func (h *LoopbackHandle) CloseAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Frames returns every frame sent so far, oldest first.
func (h *LoopbackHandle) Frames() [][]blend.Pixel {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]blend.Pixel, len(h.frames))
	copy(out, h.frames)
	return out
}

// LastFrame returns the most recently sent frame, or nil if none was sent.
func (h *LoopbackHandle) LastFrame() []blend.Pixel {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) == 0 {
		return nil
	}
	return h.frames[len(h.frames)-1]
}

// Closed reports whether CloseAll has been called.
func (h *LoopbackHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
