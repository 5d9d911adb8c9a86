package util_test

import (
	"math"
	"testing"

	"lintang/greenwave/pkg/util"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Run("float in range", func(t *testing.T) {
		assert.Equal(t, 0.5, util.Clamp(0.5, 0.0, 1.0))
	})
	t.Run("float below and above", func(t *testing.T) {
		assert.Equal(t, 0.0, util.Clamp01(-3))
		assert.Equal(t, 1.0, util.Clamp01(1.7))
	})
	t.Run("int bounds", func(t *testing.T) {
		assert.Equal(t, 20, util.Clamp(7, 20, 120))
		assert.Equal(t, 120, util.Clamp(300, 20, 120))
	})
}

func TestNonNegative(t *testing.T) {
	assert.Equal(t, 0.0, util.NonNegative(-1))
	assert.Equal(t, 0.0, util.NonNegative(math.NaN()))
	assert.Equal(t, 4.5, util.NonNegative(4.5))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 90.67, util.RoundFloat(90.666666, 2))
}
