package adaptive

// Difficulty-tier bonus rates. Harder questions earn a score-proportional
// bonus so a good answer on a hard question counts for more than the same
// answer on an easy one.
const (
	mediumEasyBonusRate = 5.0  // -1.0 <= difficulty < 0
	hardBonusRate       = 10.0 // difficulty >= 0

	// CorrectThreshold is the adjusted score at or above which an answer
	// counts as correct for mastery tracking.
	CorrectThreshold = 60.0
)

// AdjustScore converts a raw grader score (0-100) into a difficulty-adjusted
// score, capped at 100. Questions below difficulty -1.0 get no bonus.
func AdjustScore(rawScore, difficulty float64) float64 {
	var bonus float64
	switch {
	case difficulty < -1.0:
		bonus = 0
	case difficulty < 0:
		bonus = rawScore / 100 * mediumEasyBonusRate
	default:
		bonus = rawScore / 100 * hardBonusRate
	}

	adjusted := rawScore + bonus
	if adjusted > 100 {
		adjusted = 100
	}
	return adjusted
}

// IsCorrect reports whether an adjusted score counts as a correct answer.
func IsCorrect(adjustedScore float64) bool {
	return adjustedScore >= CorrectThreshold
}
