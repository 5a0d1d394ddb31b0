// Package input implements keyboard input fan-out: a Source collaborator
// that blocks on the physical device, an Event type carrying a monotonic
// sequence number, and an append-only Observer registry invoked
// synchronously by the scheduler (spec.md §3, §4.4).
package input

import "context"

// KeyEvent is a single raw (key index, pressed) pair read from the device,
// or the absence of one (spurious event, to be discarded), matching
// spec.md §3's Input event.
type KeyEvent struct {
	Index   uint8
	Pressed bool
}

// Source is the collaborator contract for the dedicated input thread. A
// real implementation wraps a blocking device read; NextEvent returns
// ok=false for a spurious event that should be discarded, matching
// spec.md §4.4's Option<(u8,bool)> contract.
type Source interface {
	NextEvent(ctx context.Context) (event KeyEvent, ok bool, err error)
}

// Kind distinguishes the two dispatched event classes.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
)

// Event is what observers receive. Seq is assigned by the scheduler at
// fan-out time: it is purely observational bookkeeping (not part of the
// original source's Event enum) that makes "each observer invoked exactly
// once per input event" independently testable even when two consecutive
// events carry the same key index (SPEC_FULL.md "SUPPLEMENTED FEATURES").
type Event struct {
	Seq      uint64
	Kind     Kind
	KeyIndex uint8
}

// Observer is a callback invoked synchronously, in registration order, for
// every dispatched Event (spec.md §3's "Keyboard observer").
type Observer func(Event)

// Dispatcher holds an append-only, ordered list of Observers. Notify is
// called from the scheduler goroutine, matching spec.md §4.1 step 3's
// "notify each keyboard observer in registration order". Register, Notify
// and Len take no lock: the observer list is not guarded against a
// Register running concurrently with another Register or with Notify.
type Dispatcher struct {
	observers []Observer
}

// Register appends obs to the dispatcher. No unregister is provided, per
// spec.md §9 ("no dynamic unregister is required").
func (d *Dispatcher) Register(obs Observer) {
	d.observers = append(d.observers, obs)
}

// Notify invokes every registered observer, in registration order, with
// evt.
func (d *Dispatcher) Notify(evt Event) {
	for _, obs := range d.observers {
		obs(evt)
	}
}

// Len reports how many observers are registered.
func (d *Dispatcher) Len() int {
	return len(d.observers)
}
