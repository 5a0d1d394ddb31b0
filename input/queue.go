package input

import "context"

// Queue is the non-blocking, zero-timeout try-recv channel the dedicated
// input thread posts into and the scheduler drains once per tick
// (spec.md §4.4, §9's "FIFO channels across threads" contract).
type Queue struct {
	ch chan KeyEvent
}

// NewQueue creates a Queue with the given buffer capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan KeyEvent, capacity)}
}

// Send posts evt to the queue. Only the input thread should call this.
func (q *Queue) Send(evt KeyEvent) {
	q.ch <- evt
}

// TryRecv returns the next queued KeyEvent, or ok=false if none is
// pending — the Go equivalent of a zero-timeout recv.
func (q *Queue) TryRecv() (evt KeyEvent, ok bool) {
	select {
	case evt = <-q.ch:
		return evt, true
	default:
		return KeyEvent{}, false
	}
}

// Pump runs src until ctx is cancelled or src returns an error, posting
// every event with ok=true onto the queue. It is meant to run on its own
// goroutine — the dedicated input thread spec.md §4.4 describes, which
// "never calls into VMs directly" and is cancelled only by process
// shutdown.
func (q *Queue) Pump(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		evt, ok, err := src.NextEvent(ctx)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		q.Send(evt)
	}
}
