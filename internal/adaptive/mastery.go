package adaptive

// Bayesian Knowledge Tracing parameters. This is a simplified BKT: the
// transition probability applies on correct answers and a flat forgetting
// factor on incorrect ones. Guess and slip are documented design parameters
// reserved for a full BKT update; they are not applied by UpdateMastery.
const (
	MasteryInit  = 0.3
	MasteryFloor = 0.05
	MasteryCeil  = 0.95

	learnRate    = 0.3
	forgetFactor = 0.8

	GuessProbability = 0.25
	SlipProbability  = 0.1
)

// UpdateMastery returns the new mastery probability after one correctness
// observation, clamped to [MasteryFloor, MasteryCeil].
func UpdateMastery(p float64, correct bool) float64 {
	if correct {
		p += (1 - p) * learnRate
	} else {
		p *= forgetFactor
	}
	return clampMastery(p)
}

func clampMastery(p float64) float64 {
	if p < MasteryFloor {
		return MasteryFloor
	}
	if p > MasteryCeil {
		return MasteryCeil
	}
	return p
}
