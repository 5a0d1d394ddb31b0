package input

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_TryRecvEmpty(t *testing.T) {
	q := NewQueue(1)
	_, ok := q.TryRecv()
	assert.False(t, ok)
}

func TestQueue_SendThenTryRecv(t *testing.T) {
	q := NewQueue(1)
	q.Send(KeyEvent{Index: 7, Pressed: true})

	evt, ok := q.TryRecv()
	require.True(t, ok)
	assert.Equal(t, KeyEvent{Index: 7, Pressed: true}, evt)

	_, ok = q.TryRecv()
	assert.False(t, ok)
}

// sliceSource replays a fixed list of events, then blocks until ctx is
// cancelled, matching a real device source's "blocks forever once idle"
// behavior closely enough to exercise Pump.
type sliceSource struct {
	events []KeyEvent
	i      int
}

func (s *sliceSource) NextEvent(ctx context.Context) (KeyEvent, bool, error) {
	if s.i < len(s.events) {
		evt := s.events[s.i]
		s.i++
		return evt, true, nil
	}
	<-ctx.Done()
	return KeyEvent{}, false, ctx.Err()
}

func TestQueue_PumpForwardsEventsUntilCancelled(t *testing.T) {
	q := NewQueue(4)
	src := &sliceSource{events: []KeyEvent{{Index: 1, Pressed: true}, {Index: 2, Pressed: false}}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Pump(ctx, src) }()

	first, ok := waitForEvent(t, q)
	require.True(t, ok)
	assert.Equal(t, KeyEvent{Index: 1, Pressed: true}, first)

	second, ok := waitForEvent(t, q)
	require.True(t, ok)
	assert.Equal(t, KeyEvent{Index: 2, Pressed: false}, second)

	cancel()
	<-done
}

func waitForEvent(t *testing.T, q *Queue) (KeyEvent, bool) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if evt, ok := q.TryRecv(); ok {
			return evt, true
		}
	}
	return KeyEvent{}, false
}
