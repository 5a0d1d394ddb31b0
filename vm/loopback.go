package vm

import (
	"sync"

	"github.com/eruption-linux/eruption-core/blend"
)

// LoopbackScripter is a reference Scripter implementation that performs no
// real script interpretation: Load just records the path and Realize
// fills the layer with a fixed color. It is used by the test suite and by
// the CLI when no concrete embedded script engine is wired in, matching
// the same role device.LoopbackHandle plays for Handle.
type LoopbackScripter struct {
	mu     sync.Mutex
	fill   blend.Pixel
	loaded string
}

var _ Scripter = (*LoopbackScripter)(nil)

// NewLoopbackScripter creates a LoopbackScripter that fills every Realize
// call with fill.
func NewLoopbackScripter(fill blend.Pixel) *LoopbackScripter {
	return &LoopbackScripter{fill: fill}
}

func (s *LoopbackScripter) Load(scriptPath string) error {
	s.mu.Lock()
	s.loaded = scriptPath
	s.mu.Unlock()
	return nil
}

func (s *LoopbackScripter) Tick(uint64)   {}
func (s *LoopbackScripter) KeyDown(uint8) {}
func (s *LoopbackScripter) KeyUp(uint8)   {}

func (s *LoopbackScripter) Realize(dst []blend.Pixel) error {
	s.mu.Lock()
	fill := s.fill
	s.mu.Unlock()
	for i := range dst {
		dst[i] = fill
	}
	return nil
}

func (s *LoopbackScripter) Close() error { return nil }

// LoadedScript returns the path passed to the most recent Load call, or
// "" if none has happened yet.
func (s *LoopbackScripter) LoadedScript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// SetFill changes the color every subsequent Realize call writes.
func (s *LoopbackScripter) SetFill(p blend.Pixel) {
	s.mu.Lock()
	s.fill = p
	s.mu.Unlock()
}
