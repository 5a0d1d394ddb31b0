package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_TryRecvEmptyReturnsErrTimeout(t *testing.T) {
	q := NewQueue(1)
	_, err := q.TryRecv()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestQueue_SendThenTryRecvFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Send(Message{Kind: KindLoadScript, Path: "a.lua"})
	q.Send(Message{Kind: KindLoadScript, Path: "b.lua"})

	first, err := q.TryRecv()
	assert.NoError(t, err)
	assert.Equal(t, "a.lua", first.Path)

	second, err := q.TryRecv()
	assert.NoError(t, err)
	assert.Equal(t, "b.lua", second.Path)

	_, err = q.TryRecv()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestQueue_TryRecvAfterCloseReturnsErrClosed(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	_, err := q.TryRecv()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFrontEndListener_DispatchParsesCommands(t *testing.T) {
	q := NewQueue(8)
	l := &FrontEndListener{queue: q}

	assert.NoError(t, l.dispatch("load-script /scripts/fx.lua"))
	msg, err := q.TryRecv()
	assert.NoError(t, err)
	assert.Equal(t, KindLoadScript, msg.Kind)
	assert.Equal(t, "/scripts/fx.lua", msg.Path)

	assert.NoError(t, l.dispatch("set-brightness 42.5"))
	msg, err = q.TryRecv()
	assert.NoError(t, err)
	assert.Equal(t, KindSetBrightness, msg.Kind)
	assert.Equal(t, 42.5, msg.Brightness)

	assert.NoError(t, l.dispatch("set-enable-sfx false"))
	msg, err = q.TryRecv()
	assert.NoError(t, err)
	assert.Equal(t, KindSetEnableSfx, msg.Kind)
	assert.False(t, msg.EnableSfx)

	assert.Error(t, l.dispatch("set-brightness notanumber"))
	assert.Error(t, l.dispatch("unknown-command"))
	assert.NoError(t, l.dispatch(""))
}
