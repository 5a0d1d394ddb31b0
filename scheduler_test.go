package eruption

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eruption-linux/eruption-core/blend"
	"github.com/eruption-linux/eruption-core/canvas"
	"github.com/eruption-linux/eruption-core/control"
	"github.com/eruption-linux/eruption-core/device"
	"github.com/eruption-linux/eruption-core/input"
	"github.com/eruption-linux/eruption-core/logging"
	"github.com/eruption-linux/eruption-core/profile"
	"github.com/eruption-linux/eruption-core/vm"
)

// testScripter is a Scripter test double giving the scheduler tests
// direct control over fill color and realize latency, and recording every
// loaded path,
// exercising spec.md §8's end-to-end scenarios without a real script
// engine.
type testScripter struct {
	mu        sync.Mutex
	fill      blend.Pixel
	delay     time.Duration
	loadedAt  []string
}

func (s *testScripter) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedAt = append(s.loadedAt, path)
	return nil
}
func (s *testScripter) Tick(uint64)   {}
func (s *testScripter) KeyDown(uint8) {}
func (s *testScripter) KeyUp(uint8)   {}
func (s *testScripter) Realize(dst []blend.Pixel) error {
	s.mu.Lock()
	delay, fill := s.delay, s.fill
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	for i := range dst {
		dst[i] = fill
	}
	return nil
}
func (s *testScripter) Close() error { return nil }

func (s *testScripter) LoadedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.loadedAt))
	copy(out, s.loadedAt)
	return out
}

const testNumKeys = 144

type harness struct {
	t          *testing.T
	canvas     *canvas.Canvas
	barrier    *canvas.Barrier
	bank       *vm.Bank
	dispatcher *input.Dispatcher
	inputQueue *input.Queue
	frontend   *control.Queue
	dbus       *control.Queue
	dev        *device.LoopbackHandle
	state      *profile.ActiveState
	sched      *Scheduler
}

func newHarness(t *testing.T, scripters ...*testScripter) *harness {
	t.Helper()

	c := canvas.New(testNumKeys)
	barrier := canvas.NewBarrier()
	errs := make(chan error, 16)
	bank := vm.NewBank(c, barrier, errs)
	for _, s := range scripters {
		bank.Spawn(s)
	}

	h := &harness{
		t:          t,
		canvas:     c,
		barrier:    barrier,
		bank:       bank,
		dispatcher: &input.Dispatcher{},
		inputQueue: input.NewQueue(16),
		frontend:   control.NewQueue(control.DefaultQueueCapacity),
		dbus:       control.NewQueue(control.DefaultQueueCapacity),
		dev:        device.NewLoopbackHandle(device.Descriptor{Make: "Test", Model: "Harness"}, testNumKeys),
		state:      profile.NewActiveState(profile.Default()),
	}
	h.sched = New(c, barrier, bank, h.dispatcher, h.inputQueue, h.frontend, h.dbus, h.dev, h.state, nil, logging.New(discardWriter{}, logging.LevelTrace))
	return h
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func writeAccessibleScript(t *testing.T, dir, name string) string {
	t.Helper()
	scriptPath := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(scriptPath, []byte("-- script"), 0o644))
	require.NoError(t, os.WriteFile(profile.PathFor(scriptPath), []byte("name = \"x\"\n"), 0o644))
	return scriptPath
}

func TestScheduler_SingleSolidLayer(t *testing.T) {
	scripter := &testScripter{fill: blend.Pixel{R: 255, G: 0, B: 0, A: 255}}
	h := newHarness(t, scripter)

	h.sched.runTick(time.Now())

	frame := h.dev.LastFrame()
	require.Len(t, frame, testNumKeys)
	for _, px := range frame {
		assert.Equal(t, blend.Pixel{R: 255, G: 0, B: 0, A: 255}, px)
	}
}

func TestScheduler_TwoLayerAlphaBlend(t *testing.T) {
	a := &testScripter{fill: blend.Pixel{R: 0, G: 0, B: 255, A: 255}}
	b := &testScripter{fill: blend.Pixel{R: 255, G: 0, B: 0, A: 128}}
	h := newHarness(t, a, b)

	h.sched.runTick(time.Now())

	frame := h.dev.LastFrame()
	require.NotEmpty(t, frame)
	assert.Equal(t, blend.Pixel{R: 128, G: 0, B: 127, A: 255}, frame[0])
}

func TestScheduler_KeyEventFanOut(t *testing.T) {
	vmA := &testScripter{}
	vmB := &testScripter{}
	h := newHarness(t, vmA, vmB)

	var observed []input.Event
	var mu sync.Mutex
	h.dispatcher.Register(func(e input.Event) {
		mu.Lock()
		observed = append(observed, e)
		mu.Unlock()
	})
	h.dispatcher.Register(func(e input.Event) {
		mu.Lock()
		observed = append(observed, e)
		mu.Unlock()
	})

	h.inputQueue.Send(input.KeyEvent{Index: 7, Pressed: true})
	h.sched.runTick(time.Now())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, observed, 2)
	assert.Equal(t, input.KeyDown, observed[0].Kind)
	assert.Equal(t, uint8(7), observed[0].KeyIndex)
	assert.Equal(t, observed[0].Kind, observed[1].Kind)
	assert.Equal(t, observed[0].KeyIndex, observed[1].KeyIndex)
}

func TestScheduler_BlendTimeoutDropsFrame(t *testing.T) {
	fast := &testScripter{fill: blend.Pixel{R: 1, G: 1, B: 1, A: 255}}
	slow := &testScripter{fill: blend.Pixel{R: 2, G: 2, B: 2, A: 255}, delay: 200 * time.Millisecond}
	h := newHarness(t, fast, slow)

	h.sched.runTick(time.Now())

	assert.Nil(t, h.dev.LastFrame(), "a timed-out composition must not push a frame")
}

func TestScheduler_ProfileSwitchReloadsVM0(t *testing.T) {
	dir := t.TempDir()
	yScript := writeAccessibleScript(t, dir, "y.lua")

	profilePath := filepath.Join(dir, "b.profile")
	contents := "name = \"b\"\nactive_scripts = [\"" + yScript + "\"]\n"
	require.NoError(t, os.WriteFile(profilePath, []byte(contents), 0o644))

	scripter := &testScripter{}
	h := newHarness(t, scripter)

	h.frontend.Send(control.Message{Kind: control.KindSwitchProfile, Path: profilePath})
	h.sched.runTick(time.Now())

	assert.Equal(t, "b", h.state.Profile().Name)
	assert.Equal(t, []string{yScript}, scripter.LoadedPaths())
}

func TestScheduler_InaccessibleScriptAtRuntimeIgnored(t *testing.T) {
	scripter := &testScripter{fill: blend.Pixel{R: 9, G: 9, B: 9, A: 255}}
	h := newHarness(t, scripter)

	h.frontend.Send(control.Message{Kind: control.KindLoadScript, Path: "/nonexistent/script.lua"})
	h.sched.runTick(time.Now())

	assert.Empty(t, scripter.LoadedPaths())
	// the pipeline keeps flowing: a frame is still composed and pushed.
	assert.NotNil(t, h.dev.LastFrame())
}

func TestScheduler_TickMonotonicity(t *testing.T) {
	scripter := &testScripter{}
	h := newHarness(t, scripter)

	first := h.sched.Tick()
	h.sched.runTick(time.Now())
	atomicTickBump(h.sched)
	second := h.sched.Tick()

	assert.GreaterOrEqual(t, second, first)
}

// atomicTickBump mirrors Run's own tick increment, since runTick itself
// intentionally leaves tick advancement to the caller (Run), matching
// spec.md §4.1 step 8 running after step 7's sleep.
func atomicTickBump(s *Scheduler) {
	s.tick++
}
