package eruption

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/eruption-linux/eruption-core/canvas"
	"github.com/eruption-linux/eruption-core/control"
	"github.com/eruption-linux/eruption-core/device"
	"github.com/eruption-linux/eruption-core/input"
	"github.com/eruption-linux/eruption-core/logging"
	"github.com/eruption-linux/eruption-core/profile"
	"github.com/eruption-linux/eruption-core/vm"
)

// Tuning constants from spec.md §2, §4.1, §9.
const (
	// MainLoopDelay is the nominal tick period. spec.md §4.1 names a
	// 15-20ms target; 16ms matches the ~60Hz cadence most of the retrieved
	// LED-compositor logic in the original source assumes.
	MainLoopDelay = 16 * time.Millisecond

	// FrameBlendTimeout bounds how long the scheduler waits for a single
	// VM to signal the blend barrier before dropping the frame. spec.md §9
	// flags that this is per-VM, not per-frame, so the worst case
	// composition wait is N*FrameBlendTimeout — the source's behavior,
	// kept rather than redesigned (see DESIGN.md).
	FrameBlendTimeout = 50 * time.Millisecond

	// JitterWarnThreshold is how far over budget a tick must run before
	// the scheduler logs a jitter warning (spec.md §4.1 step 7).
	JitterWarnThreshold = 15 * time.Millisecond

	// FPSLogInterval is how often the scheduler emits an FPS line.
	FPSLogInterval = time.Second

	// ShutdownGrace is how long the scheduler sleeps after broadcasting
	// Quit to let VMs exit before closing the device (spec.md §5).
	ShutdownGrace = 250 * time.Millisecond
)

// Scheduler drives the real-time rendering pipeline described in spec.md
// §4.1: it owns no mutable pixel state itself, only the collaborators
// (Canvas, Barrier, Bank, Dispatcher, control Queues, Handle, ActiveState)
// that together make up one tick.
type Scheduler struct {
	canvas     *canvas.Canvas
	barrier    *canvas.Barrier
	bank       *vm.Bank
	dispatcher *input.Dispatcher
	inputQueue *input.Queue
	frontend   *control.Queue
	dbus       *control.Queue
	dev        device.Handle
	state      *profile.ActiveState
	log        *logging.Logger

	loader ScriptLoader

	quit      atomic.Bool
	tick      uint64
	frames    uint64
	inputSeq  uint64
	lastFPS   time.Time
	startTime time.Time
}

// ScriptLoader resolves a profile's active scripts into running VMs. It is
// a seam so the scheduler doesn't need to know how scripts are loaded
// into a Scripter, only that it can ask for script i's path to be
// (re)loaded onto VM i.
type ScriptLoader interface {
	// LoadInto sends a LoadScript command for scriptPath to the VM at
	// index. Script + manifest accessibility is checked by the caller
	// before LoadInto is called.
	LoadInto(index int, scriptPath string) error
}

// New creates a Scheduler. None of the collaborators are started by New;
// the caller is responsible for having already spawned the VM bank's
// goroutines, opened the device, and started the input/control-plane
// producer goroutines before calling Run.
func New(
	c *canvas.Canvas,
	barrier *canvas.Barrier,
	bank *vm.Bank,
	dispatcher *input.Dispatcher,
	inputQueue *input.Queue,
	frontend *control.Queue,
	dbus *control.Queue,
	dev device.Handle,
	state *profile.ActiveState,
	loader ScriptLoader,
	log *logging.Logger,
) *Scheduler {
	return &Scheduler{
		canvas:     c,
		barrier:    barrier,
		bank:       bank,
		dispatcher: dispatcher,
		inputQueue: inputQueue,
		frontend:   frontend,
		dbus:       dbus,
		dev:        dev,
		state:      state,
		loader:     loader,
		log:        log,
	}
}

// RequestQuit sets the global quit flag; Run checks it at the end of each
// tick and returns once the tick in progress completes (spec.md §4.1 step
// 9, §5).
func (s *Scheduler) RequestQuit() {
	s.quit.Store(true)
}

// Tick returns the current tick counter, useful for tests asserting
// monotonicity (spec.md §8 "Tick monotonicity").
func (s *Scheduler) Tick() uint64 {
	return atomic.LoadUint64(&s.tick)
}

// Run drives the main loop until RequestQuit is called or ctx is
// cancelled, or a control-plane channel errors fatally (spec.md §7
// ChannelError). On return, it has already broadcast Quit to every VM.
func (s *Scheduler) Run(ctx context.Context) error {
	s.startTime = time.Now()
	s.lastFPS = s.startTime

	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		tickStart := time.Now()

		if err := s.runTick(tickStart); err != nil {
			return err
		}

		elapsed := time.Since(tickStart)
		if elapsed > MainLoopDelay+JitterWarnThreshold {
			s.log.Warnf("tick %d took %s, exceeding budget by %s", s.tick, elapsed, elapsed-MainLoopDelay)
		}

		sleepFor := MainLoopDelay - elapsed
		if sleepFor > 0 {
			time.Sleep(sleepFor)
		}

		atomic.AddUint64(&s.tick, 1)
		s.frames++
		if now := time.Now(); now.Sub(s.lastFPS) >= FPSLogInterval {
			s.log.Infof("FPS: %d", s.frames)
			s.frames = 0
			s.lastFPS = now
		}

		if s.quit.Load() {
			return nil
		}
	}
}

// runTick performs steps 2-6 of spec.md §4.1; Run performs steps 7-9
// (sleep, counters, quit check) around it. Step 1, plugin main_loop_hook,
// is out of scope — no plugin capability object is defined anywhere the
// retrieved pack needs one wired in; see DESIGN.md.
func (s *Scheduler) runTick(tickStart time.Time) error {
	if err := s.drainControlPlane(); err != nil {
		return err
	}

	s.drainInput()

	msSinceStart := uint64(tickStart.Sub(s.startTime).Milliseconds())
	if err := s.bank.Broadcast(vm.Command{Kind: vm.CmdTick, TickMillis: msSinceStart}); err != nil {
		s.log.Warnf("tick broadcast: %v", err)
	}

	s.compose()

	return nil
}

// drainControlPlane implements spec.md §4.1 step 2: a non-blocking drain
// of the front-end and D-Bus queues, each message applied immediately.
func (s *Scheduler) drainControlPlane() error {
	for _, q := range [2]*control.Queue{s.frontend, s.dbus} {
		if q == nil {
			continue
		}
		for {
			msg, err := q.TryRecv()
			if err != nil {
				if errors.Is(err, control.ErrTimeout) {
					break
				}
				return &ChannelError{Cause: err}
			}
			s.applyControlMessage(msg)
		}
	}
	return nil
}

func (s *Scheduler) applyControlMessage(msg control.Message) {
	switch msg.Kind {
	case control.KindLoadScript:
		s.loadScriptOntoVM0(msg.Path)

	case control.KindSwitchProfile:
		s.switchProfile(msg.Path)

	case control.KindSetBrightness:
		s.state.SetBrightness(msg.Brightness)

	case control.KindSetEnableSfx:
		s.state.SetEnableSfx(msg.EnableSfx)
	}
}

// loadScriptOntoVM0 routes a LoadScript message to VM 0, matching the
// original source's foreground-script policy (spec.md §9 — kept as
// specified, not "fixed").
func (s *Scheduler) loadScriptOntoVM0(scriptPath string) {
	if err := profile.IsScriptAccessible(scriptPath); err != nil {
		s.log.Errorf("LoadScript %q rejected: %v", scriptPath, err)
		return
	}
	if s.loader != nil {
		if err := s.loader.LoadInto(0, scriptPath); err != nil {
			s.log.Errorf("LoadScript %q failed: %v", scriptPath, err)
		}
		return
	}
	if v, ok := s.bank.At(0); ok {
		if err := v.Send(vm.Command{Kind: vm.CmdLoadScript, ScriptPath: scriptPath}); err != nil {
			s.log.Warnf("LoadScript %q dropped: %v", scriptPath, err)
		}
	}
}

// switchProfile replaces the active profile and routes the new profile's
// first script onto VM 0 (spec.md §4.1 step 2, §4.7).
func (s *Scheduler) switchProfile(profilePath string) {
	p, err := profile.Load(profilePath)
	if err != nil {
		s.log.Errorf("SwitchProfile %q failed, keeping current profile: %v", profilePath, err)
		return
	}
	s.state.SetProfile(p)
	if len(p.ActiveScripts) > 0 {
		s.loadScriptOntoVM0(p.ActiveScripts[0])
	}
}

// drainInput implements spec.md §4.1 step 3.
func (s *Scheduler) drainInput() {
	for {
		evt, ok := s.inputQueue.TryRecv()
		if !ok {
			return
		}

		var kind vm.CommandKind
		var obsKind input.Kind
		if evt.Pressed {
			kind, obsKind = vm.CmdKeyDown, input.KeyDown
		} else {
			kind, obsKind = vm.CmdKeyUp, input.KeyUp
		}

		if err := s.bank.Broadcast(vm.Command{Kind: kind, KeyIndex: evt.Index}); err != nil {
			s.log.Warnf("input broadcast: %v", err)
		}

		s.dispatcher.Notify(input.Event{Seq: s.nextSeq(), Kind: obsKind, KeyIndex: evt.Index})
	}
}

func (s *Scheduler) nextSeq() uint64 {
	return atomic.AddUint64(&s.inputSeq, 1)
}

// compose implements spec.md §4.1 steps 5-6: clear the canvas, dispatch
// RealizeColorMap to each VM in profile order one at a time (so the
// barrier serializes blends deterministically), and push the result to
// the device unless a VM timed out.
func (s *Scheduler) compose() {
	s.canvas.Clear()

	vms := s.bank.VMs()
	n := len(vms)
	s.barrier.Reset(n)

	dropFrame := false
	for i, v := range vms {
		if err := v.Send(vm.Command{Kind: vm.CmdRealizeColorMap}); err != nil {
			s.log.Warnf("tick %d: %v", s.tick, err)
			dropFrame = true
			break
		}
		target := n - i - 1
		if !s.barrier.WaitUntilAtMost(target, FrameBlendTimeout) {
			s.log.Warnf("%v", (&BlendTimeoutError{Tick: s.tick, VMIndex: v.Index}).Error())
			dropFrame = true
			break
		}
	}

	if dropFrame {
		return
	}

	if err := s.dev.SendLEDMap(s.canvas.Snapshot()); err != nil {
		s.log.Errorf("send_led_map failed: %v", err)
	}
}

// shutdown broadcasts Quit(0) to every VM and gives them ShutdownGrace to
// exit before closing the device, matching spec.md §5's shutdown
// sequence.
func (s *Scheduler) shutdown() {
	s.bank.Shutdown(ExitOK)
	time.Sleep(ShutdownGrace)
	if err := s.dev.CloseAll(); err != nil {
		s.log.Errorf("device close failed: %v", err)
	}
}
