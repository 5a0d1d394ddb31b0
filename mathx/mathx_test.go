package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	assert.Equal(t, 3, Min(3, 7))
	assert.Equal(t, 3, Min(7, 3))
	assert.Equal(t, 7, Max(3, 7))
	assert.Equal(t, 7, Max(7, 3))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 5, Abs(-5))
	assert.Equal(t, 5, Abs(5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-10.0, 0.0, 100.0))
	assert.Equal(t, 100.0, Clamp(150.0, 0.0, 100.0))
	assert.Equal(t, 42.0, Clamp(42.0, 0.0, 100.0))
}
