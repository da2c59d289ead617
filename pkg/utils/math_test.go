package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundDecimal(t *testing.T) {
	assert.Equal(t, 3.14, RoundDecimal(3.14159, 2))
	assert.Equal(t, 3.1416, RoundDecimal(3.14159, 4))
	assert.Equal(t, -2.5, RoundDecimal(-2.4999, 1))
	assert.Equal(t, 3.0, RoundDecimal(3.14159, 0))
}

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{5, 5, 5}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
