package canvas

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBarrier_WaitUntilAtMostReturnsImmediatelyWhenAlreadyMet(t *testing.T) {
	b := NewBarrier()
	b.Reset(0)
	ok := b.WaitUntilAtMost(0, time.Second)
	assert.True(t, ok)
}

func TestBarrier_WaitUntilAtMostUnblocksOnDone(t *testing.T) {
	b := NewBarrier()
	b.Reset(2)

	go func() {
		time.Sleep(5 * time.Millisecond)
		b.Done()
		b.Done()
	}()

	ok := b.WaitUntilAtMost(0, time.Second)
	assert.True(t, ok)
	assert.Equal(t, 0, b.Pending())
}

func TestBarrier_WaitUntilAtMostTimesOut(t *testing.T) {
	b := NewBarrier()
	b.Reset(1)

	start := time.Now()
	ok := b.WaitUntilAtMost(0, 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Equal(t, 1, b.Pending())
}

func TestBarrier_DoneNeverGoesNegative(t *testing.T) {
	b := NewBarrier()
	b.Reset(0)
	b.Done()
	assert.Equal(t, 0, b.Pending())
}
