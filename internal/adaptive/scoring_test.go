package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustScore_Tiers(t *testing.T) {
	// Easy questions get no bonus.
	assert.Equal(t, 80.0, AdjustScore(80, -1.5))
	assert.Equal(t, 80.0, AdjustScore(80, -2.9))

	// Medium-easy: +raw/100*5.
	assert.InDelta(t, 84.0, AdjustScore(80, -0.5), 1e-9)
	assert.InDelta(t, 84.0, AdjustScore(80, -1.0), 1e-9)

	// Medium-hard and hard: +raw/100*10.
	assert.InDelta(t, 88.0, AdjustScore(80, 0.0), 1e-9)
	assert.InDelta(t, 88.0, AdjustScore(80, 2.7), 1e-9)
}

func TestAdjustScore_CappedAt100(t *testing.T) {
	assert.Equal(t, 100.0, AdjustScore(100, 2.0))
	assert.Equal(t, 100.0, AdjustScore(98, 1.0))
	assert.Equal(t, 100.0, AdjustScore(100, -1.5))
}

func TestAdjustScore_MonotoneAcrossTiers(t *testing.T) {
	// For a fixed raw score the adjusted score never decreases as the
	// difficulty tier rises.
	for _, raw := range []float64{0, 25, 59, 60, 77, 100} {
		easy := AdjustScore(raw, -2.0)
		medium := AdjustScore(raw, -0.5)
		hard := AdjustScore(raw, 1.5)

		assert.LessOrEqual(t, easy, medium, "raw=%v", raw)
		assert.LessOrEqual(t, medium, hard, "raw=%v", raw)
		assert.LessOrEqual(t, hard, 100.0, "raw=%v", raw)
	}
}

func TestIsCorrect_Threshold(t *testing.T) {
	assert.True(t, IsCorrect(60))
	assert.True(t, IsCorrect(100))
	assert.False(t, IsCorrect(59.999))
	assert.False(t, IsCorrect(0))
}

func TestAdjustScore_BonusCanCrossThreshold(t *testing.T) {
	// 57 raw on a hard question: 57 + 5.7 = 62.7, which flips correctness.
	adjusted := AdjustScore(57, 1.0)
	assert.InDelta(t, 62.7, adjusted, 1e-9)
	assert.True(t, IsCorrect(adjusted))
	assert.False(t, IsCorrect(AdjustScore(57, -2.0)))
}
