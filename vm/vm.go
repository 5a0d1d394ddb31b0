// Package vm implements the bank of script virtual machines: one goroutine
// per running script, each consuming tagged Command messages and blending
// its own LayerBuffer onto the shared canvas during composition.
//
// The script engine itself (Scripter) is a black-box collaborator — this
// package never interprets script bytecode, it only drives the state
// machine spec.md §4.2 describes around it.
package vm

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/eruption-linux/eruption-core/blend"
	"github.com/eruption-linux/eruption-core/canvas"
)

// CommandKind tags a Command's variant.
type CommandKind int

const (
	CmdLoadScript CommandKind = iota
	CmdKeyDown
	CmdKeyUp
	CmdTick
	CmdRealizeColorMap
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdLoadScript:
		return "LoadScript"
	case CmdKeyDown:
		return "KeyDown"
	case CmdKeyUp:
		return "KeyUp"
	case CmdTick:
		return "Tick"
	case CmdRealizeColorMap:
		return "RealizeColorMap"
	case CmdQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// Command is the tagged message sent to a VM's command channel, modeling
// spec.md §3's "Command message to a VM".
type Command struct {
	Kind       CommandKind
	ScriptPath string // CmdLoadScript
	KeyIndex   uint8  // CmdKeyDown / CmdKeyUp
	TickMillis uint64 // CmdTick
	ExitCode   int    // CmdQuit
}

// Scripter is the black-box per-VM script engine collaborator. A
// well-behaved Scripter responds to Realize by writing exactly len(dst)
// pixels into dst within the barrier's blend timeout (spec.md §6).
type Scripter interface {
	// Load (re)initializes the interpreter against scriptPath. Returning
	// an error is fatal to the VM, per spec.md §4.2's Reloading state.
	Load(scriptPath string) error
	// Tick advances the script's internal time.
	Tick(millis uint64)
	// KeyDown/KeyUp update the script's key-state mirror.
	KeyDown(index uint8)
	KeyUp(index uint8)
	// Realize computes the current frame into dst, one Pixel per key.
	Realize(dst []blend.Pixel) error
	// Close releases any resources the Scripter holds.
	Close() error
}

// State is the VM's current state in the spec.md §4.2 state machine.
type State int

const (
	StateIdle State = iota
	StateReloading
	StateBlending
	StateTerminated
)

// ExecError reports that a Scripter failed in a way that is fatal to the
// VM it belongs to, but not to the rest of the pipeline (spec.md §7,
// VMExecError).
type ExecError struct {
	Index int
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("vm %d: %v", e.Index, e.Err)
}
func (e *ExecError) Unwrap() error { return e.Err }

// VM owns one LayerBuffer and runs its Scripter on a dedicated goroutine.
type VM struct {
	Index int

	scripter Scripter
	canvas   *canvas.Canvas
	barrier  *canvas.Barrier
	cmds     chan Command
	errs     chan<- error // VMExecError sink, owned by the bank

	mu    sync.Mutex
	state State
	layer []blend.Pixel
}

// New creates a VM bound to c and barrier, with command buffer capacity
// bufSize. spec.md §4.2 describes the command channel as logically
// unbounded; Go channels need a finite buffer, so callers should size
// bufSize generously and treat a full channel the same as a dropped frame.
func New(index int, scripter Scripter, c *canvas.Canvas, barrier *canvas.Barrier, errs chan<- error, bufSize int) *VM {
	return &VM{
		Index:    index,
		scripter: scripter,
		canvas:   c,
		barrier:  barrier,
		cmds:     make(chan Command, bufSize),
		errs:     errs,
		layer:    make([]blend.Pixel, c.Len()),
	}
}

// Send enqueues a command for this VM without blocking. A full channel
// means the VM has fallen behind, which the scheduler should treat as it
// would a blend timeout (spec.md §4.2 "Back-pressure").
func (v *VM) Send(cmd Command) error {
	select {
	case v.cmds <- cmd:
		return nil
	default:
		return errors.Errorf("vm %d: command channel full, dropping %s", v.Index, cmd.Kind)
	}
}

// State returns the VM's current state.
func (v *VM) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *VM) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

// Run drives the VM's command loop until a Quit command is processed or
// cmds is closed. It is meant to run on its own goroutine; the caller is
// expected to call Run in a "go vm.Run()" statement.
func (v *VM) Run() {
	defer v.setState(StateTerminated)

	for cmd := range v.cmds {
		switch cmd.Kind {
		case CmdLoadScript:
			v.setState(StateReloading)
			if err := v.scripter.Load(cmd.ScriptPath); err != nil {
				v.reportExecErr(err)
				return
			}
			v.setState(StateIdle)

		case CmdKeyDown:
			v.scripter.KeyDown(cmd.KeyIndex)

		case CmdKeyUp:
			v.scripter.KeyUp(cmd.KeyIndex)

		case CmdTick:
			v.scripter.Tick(cmd.TickMillis)

		case CmdRealizeColorMap:
			v.setState(StateBlending)
			if err := v.scripter.Realize(v.layer); err != nil {
				v.reportExecErr(err)
				return
			}
			v.canvas.BlendLayer(v.layer)
			v.barrier.Done()
			v.setState(StateIdle)

		case CmdQuit:
			_ = v.scripter.Close()
			return
		}
	}
}

func (v *VM) reportExecErr(err error) {
	if v.errs != nil {
		v.errs <- &ExecError{Index: v.Index, Err: err}
	}
}
