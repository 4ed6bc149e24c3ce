package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateMastery_Correct(t *testing.T) {
	// 0.3 + 0.7*0.3 = 0.51
	assert.InDelta(t, 0.51, UpdateMastery(0.3, true), 1e-9)
}

func TestUpdateMastery_Incorrect(t *testing.T) {
	// 0.3 * 0.8 = 0.24
	assert.InDelta(t, 0.24, UpdateMastery(0.3, false), 1e-9)
}

func TestUpdateMastery_MonotoneDirection(t *testing.T) {
	for _, p := range []float64{0.05, 0.3, 0.5, 0.77, 0.95} {
		assert.GreaterOrEqual(t, UpdateMastery(p, true), p, "p=%v", p)
		assert.LessOrEqual(t, UpdateMastery(p, false), p, "p=%v", p)
	}
}

func TestUpdateMastery_BoundsUnderLongSequences(t *testing.T) {
	p := MasteryInit
	for i := 0; i < 50; i++ {
		p = UpdateMastery(p, true)
		assert.LessOrEqual(t, p, MasteryCeil)
	}
	assert.Equal(t, MasteryCeil, p)

	for i := 0; i < 50; i++ {
		p = UpdateMastery(p, false)
		assert.GreaterOrEqual(t, p, MasteryFloor)
	}
	assert.Equal(t, MasteryFloor, p)
}

func TestUpdateMastery_AlternatingStaysInRange(t *testing.T) {
	p := MasteryInit
	for i := 0; i < 100; i++ {
		p = UpdateMastery(p, i%3 == 0)
		assert.GreaterOrEqual(t, p, MasteryFloor)
		assert.LessOrEqual(t, p, MasteryCeil)
	}
}
