package input

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopbackSource_BlocksUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok, err := LoopbackSource{}.NextEvent(ctx)
	assert.False(t, ok)
	assert.Error(t, err)
}
