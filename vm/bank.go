package vm

import (
	"github.com/eruption-linux/eruption-core/canvas"
)

// DefaultCommandBuffer is the per-VM channel capacity used unless the
// caller overrides it. It is sized generously so that a VM falling behind
// for a tick or two doesn't itself become a source of dropped commands —
// the barrier timeout in canvas.Barrier is what enforces frame budget.
const DefaultCommandBuffer = 256

// Bank owns the set of running VMs in profile-declared order. It is
// mutated only by the scheduler goroutine; VMs run on their own
// goroutines and are reached only through their command channels.
type Bank struct {
	canvas  *canvas.Canvas
	barrier *canvas.Barrier
	errs    chan<- error

	vms []*VM
}

// NewBank creates an empty Bank bound to c and barrier.
func NewBank(c *canvas.Canvas, barrier *canvas.Barrier, errs chan<- error) *Bank {
	return &Bank{canvas: c, barrier: barrier, errs: errs}
}

// Spawn starts a new VM running scripter at the next index and returns it.
// The VM's goroutine is started immediately.
func (b *Bank) Spawn(scripter Scripter) *VM {
	v := New(len(b.vms), scripter, b.canvas, b.barrier, b.errs, DefaultCommandBuffer)
	b.vms = append(b.vms, v)
	go v.Run()
	return v
}

// VMs returns the bank's VMs in spawn (profile) order. The returned slice
// must not be mutated by the caller.
func (b *Bank) VMs() []*VM {
	return b.vms
}

// Len returns the number of VMs in the bank.
func (b *Bank) Len() int {
	return len(b.vms)
}

// At returns the VM at index, routing policy for LoadScript/SwitchProfile
// messages that target "VM 0" (spec.md §4.1, §9 — the original source
// broadcasts LoadScript only to VM 0, foreground-script policy, kept as
// specified rather than "fixed").
func (b *Bank) At(index int) (*VM, bool) {
	if index < 0 || index >= len(b.vms) {
		return nil, false
	}
	return b.vms[index], true
}

// Broadcast sends cmd to every VM in the bank, in order. It returns the
// first error encountered (a full channel on some VM), but still attempts
// delivery to the remaining VMs so one laggard doesn't starve the others
// of e.g. a Quit command.
func (b *Bank) Broadcast(cmd Command) error {
	var firstErr error
	for _, v := range b.vms {
		if err := v.Send(cmd); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown broadcasts Quit(exitCode) to every VM and closes each VM's
// command channel so its goroutine can exit once it drains the queue.
func (b *Bank) Shutdown(exitCode int) {
	for _, v := range b.vms {
		v.Send(Command{Kind: CmdQuit, ExitCode: exitCode})
		close(v.cmds)
	}
}
