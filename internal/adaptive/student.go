package adaptive

// AnswerRecord is one entry in the per-session answer history. The ordinal is
// the 0-based submission order; it doubles as the recency index for the
// ability estimator.
type AnswerRecord struct {
	QuestionID    int64   `json:"question_id"`
	RawScore      float64 `json:"raw_score"`
	AdjustedScore float64 `json:"adjusted_score"`
	Correct       bool    `json:"correct"`
	Topic         string  `json:"topic"`
	Ordinal       int     `json:"ordinal"`
}

// StudentModel holds the per-session estimate of the student: IRT ability and
// BKT per-topic mastery. One instance per session, mutated after every answer.
type StudentModel struct {
	Ability      float64            `json:"ability"`
	TopicMastery map[string]float64 `json:"topic_mastery"`
	Answered     map[int64]bool     `json:"answered"`
	History      []AnswerRecord     `json:"history"`
}

// NewStudentModel initializes a model for the given bank: ability 0.0 and
// every topic present in the bank at MasteryInit.
func NewStudentModel(bank []Question) *StudentModel {
	m := &StudentModel{
		Ability:      0.0,
		TopicMastery: make(map[string]float64),
		Answered:     make(map[int64]bool),
	}
	for _, q := range bank {
		m.TopicMastery[q.Topic] = MasteryInit
	}
	return m
}

// MasterySnapshot returns a copy of the mastery map, safe for callers to keep.
func (m *StudentModel) MasterySnapshot() map[string]float64 {
	out := make(map[string]float64, len(m.TopicMastery))
	for topic, p := range m.TopicMastery {
		out[topic] = p
	}
	return out
}
