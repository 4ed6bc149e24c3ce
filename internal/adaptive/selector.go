package adaptive

import "math"

// Selection weights. Fisher information dominates; the mastery term adds the
// topic's distance from the 0.5 midpoint, so topics the model is already
// confident about (in either direction) score higher than undecided ones.
const (
	discrimination    = 1.7
	informationWeight = 0.7
	uncertaintyWeight = 0.3
)

// SelectFirst picks the easiest question in the bank, ties broken by
// insertion order. Returns ErrEmptyBank for an empty bank.
func SelectFirst(bank []Question) (*Question, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}

	best := 0
	for i := 1; i < len(bank); i++ {
		if bank[i].Difficulty < bank[best].Difficulty {
			best = i
		}
	}
	return &bank[best], nil
}

// SelectNext picks the unanswered question maximizing the combined
// information/coverage score for the current student model. Ties break to the
// lowest question id so selection is deterministic. Returns ErrEmptyBank when
// no eligible candidate remains; the caller ends the session early.
func SelectNext(bank []Question, model *StudentModel) (*Question, error) {
	var best *Question
	var bestScore float64

	for i := range bank {
		q := &bank[i]
		if model.Answered[q.ID] {
			continue
		}

		score := candidateScore(q, model)
		if best == nil || score > bestScore || (score == bestScore && q.ID < best.ID) {
			best = q
			bestScore = score
		}
	}

	if best == nil {
		return nil, ErrEmptyBank
	}
	return best, nil
}

// candidateScore combines Fisher information under the 2PL model with the
// topic-uncertainty term.
func candidateScore(q *Question, model *StudentModel) float64 {
	pCorrect := 1 / (1 + math.Exp(-discrimination*(model.Ability-q.Difficulty)))
	information := discrimination * discrimination * pCorrect * (1 - pCorrect)
	uncertainty := math.Abs(0.5 - model.TopicMastery[q.Topic])

	return informationWeight*information + uncertaintyWeight*uncertainty
}
