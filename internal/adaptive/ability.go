package adaptive

// recencyWeightSpan is how much extra weight the most recent answer carries
// over the first one (30%).
const recencyWeightSpan = 0.3

// EstimateAbility recomputes the ability estimate from the full answer
// history. Each adjusted score maps linearly onto the ability scale
// (0 -> -3, 50 -> 0, 100 -> +3) and later answers are weighted up to 30%
// heavier than earlier ones.
//
// The recompute is intentionally O(n) from scratch: the weight denominator
// changes with every new answer, so an incremental running average would
// drift from this formula. n is bounded by the session question limit.
//
// Returns 0.0 for an empty history (session start).
func EstimateAbility(history []AnswerRecord) float64 {
	n := len(history)
	if n == 0 {
		return 0.0
	}

	var weightedSum, weightTotal float64
	for i, rec := range history {
		estimate := (rec.AdjustedScore - 50) / 50 * 3
		weight := 1.0 + float64(i)/float64(n)*recencyWeightSpan
		weightedSum += estimate * weight
		weightTotal += weight
	}

	return weightedSum / weightTotal
}

// ClampAbility bounds an ability value to the reporting range [-3, +3].
func ClampAbility(theta float64) float64 {
	if theta < DifficultyMin {
		return DifficultyMin
	}
	if theta > DifficultyMax {
		return DifficultyMax
	}
	return theta
}
