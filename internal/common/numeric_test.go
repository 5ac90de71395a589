package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 34.62, Round2(6*5.77))
	assert.Equal(t, 1.01, Round2(1.005000001))
	assert.Equal(t, -2.5, Round2(-2.4999999))
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(50.00, 50.01, 0.01))
	assert.False(t, WithinTolerance(50.00, 50.02, 0.01))
	assert.True(t, WithinTolerance(34.62, 6*5.77, 0.01))
}

func TestStrictlyWithin(t *testing.T) {
	assert.True(t, StrictlyWithin(-50.00, -50.0000001, 0.01))
	assert.True(t, StrictlyWithin(-50.00, 95.0-145.0, 0.01))
	assert.False(t, StrictlyWithin(-50.00, -50.01, 0.01))

	// Sub-cent tolerances still accept an exact match
	assert.True(t, StrictlyWithin(-50.00, 50.0-100.0, 0.001))
	assert.True(t, StrictlyWithin(10, 10, 0))
	assert.False(t, StrictlyWithin(0.125, 0.13, 0.001))
	assert.False(t, StrictlyWithin(10, 10.004, 0.001))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(math.NaN()))
	assert.True(t, IsMissing(0))
	assert.True(t, IsMissing(-1))
	assert.False(t, IsMissing(5.77))
}
