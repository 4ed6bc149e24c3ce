package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func history(adjusted ...float64) []AnswerRecord {
	recs := make([]AnswerRecord, len(adjusted))
	for i, a := range adjusted {
		recs[i] = AnswerRecord{AdjustedScore: a, Ordinal: i}
	}
	return recs
}

func TestEstimateAbility_EmptyHistory(t *testing.T) {
	assert.Equal(t, 0.0, EstimateAbility(nil))
}

func TestEstimateAbility_SingleAnswer(t *testing.T) {
	// (80-50)/50*3 = 1.8, the single weight cancels out.
	assert.InDelta(t, 1.8, EstimateAbility(history(80)), 1e-9)
	assert.InDelta(t, 0.0, EstimateAbility(history(50)), 1e-9)
	assert.InDelta(t, -3.0, EstimateAbility(history(0)), 1e-9)
	assert.InDelta(t, 3.0, EstimateAbility(history(100)), 1e-9)
}

func TestEstimateAbility_RecencyWeighting(t *testing.T) {
	// Same scores in opposite orders: the recent high score must pull the
	// estimate above the recent low score.
	improving := EstimateAbility(history(20, 90))
	declining := EstimateAbility(history(90, 20))

	assert.Greater(t, improving, declining)

	// Hand-computed: estimates -1.8 and 2.4, weights 1.0 and 1.15.
	want := (-1.8*1.0 + 2.4*1.15) / (1.0 + 1.15)
	assert.InDelta(t, want, improving, 1e-9)
}

func TestEstimateAbility_Determinism(t *testing.T) {
	h := history(70, 55, 90, 40, 85)
	assert.Equal(t, EstimateAbility(h), EstimateAbility(h))
}

func TestClampAbility(t *testing.T) {
	assert.Equal(t, 3.0, ClampAbility(4.2))
	assert.Equal(t, -3.0, ClampAbility(-3.5))
	assert.Equal(t, 1.75, ClampAbility(1.75))
}
