package adaptive

// State enumerates the session lifecycle.
type State string

const (
	StateInitialized State = "INITIALIZED"
	StateInProgress  State = "IN_PROGRESS"
	StateComplete    State = "COMPLETE"
)

// DefaultMaxQuestions is the exam length when the viva does not override it.
const DefaultMaxQuestions = 5

// Session is one student's adaptive exam. It owns its bank and student model
// and is fully self-contained: no globals, no I/O. Callers must serialize
// access per session; the engine itself is single-threaded.
//
// All fields are exported for JSON snapshotting, but they must only be
// mutated through SubmitAnswer.
type Session struct {
	ID             string        `json:"id"`
	StudentID      string        `json:"student_id"`
	Bank           []Question    `json:"bank"`
	Model          *StudentModel `json:"model"`
	MaxQuestions   int           `json:"max_questions"`
	QuestionsAsked int           `json:"questions_asked"`
	State          State         `json:"state"`
	Current        *Question     `json:"current,omitempty"`
}

// Feedback describes the outcome of one scored answer, for the external
// feedback/report pipeline.
type Feedback struct {
	QuestionID    int64   `json:"question_id"`
	Topic         string  `json:"topic"`
	RawScore      float64 `json:"raw_score"`
	AdjustedScore float64 `json:"adjusted_score"`
	Correct       bool    `json:"correct"`
	Ability       float64 `json:"ability"`
	TopicMastery  float64 `json:"topic_mastery"`
}

// Result is what SubmitAnswer returns: feedback for the answer just scored,
// the next question to ask (nil when the session is over), and the
// completion flag.
type Result struct {
	Feedback     Feedback  `json:"feedback"`
	NextQuestion *Question `json:"next_question,omitempty"`
	IsComplete   bool      `json:"is_complete"`
}

// Snapshot is a read-only view of session state.
type Snapshot struct {
	Ability        float64            `json:"ability"`
	TopicMastery   map[string]float64 `json:"topic_mastery"`
	QuestionsAsked int                `json:"questions_asked"`
	MaxQuestions   int                `json:"max_questions"`
	IsComplete     bool               `json:"is_complete"`
	Current        *Question          `json:"current_question,omitempty"`
}

// NewSession creates a session over the given bank and selects the first
// (easiest) question. maxQuestions <= 0 falls back to DefaultMaxQuestions.
func NewSession(id, studentID string, bank []Question, maxQuestions int) (*Session, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}

	owned := make([]Question, len(bank))
	copy(owned, bank)

	s := &Session{
		ID:           id,
		StudentID:    studentID,
		Bank:         owned,
		Model:        NewStudentModel(owned),
		MaxQuestions: maxQuestions,
		State:        StateInitialized,
	}

	first, err := SelectFirst(s.Bank)
	if err != nil {
		return nil, err
	}
	s.Current = first
	s.State = StateInProgress

	return s, nil
}

// SubmitAnswer runs the full update pipeline for the question currently
// awaiting an answer: score adjustment, history append, ability
// re-estimation, mastery update, then next-question selection. Validation
// happens before any mutation, so a returned error means nothing changed.
func (s *Session) SubmitAnswer(questionID int64, rawScore float64) (*Result, error) {
	if s.State == StateComplete {
		return nil, ErrSessionClosed
	}
	if rawScore < 0 || rawScore > 100 {
		return nil, ErrInvalidScore
	}
	if s.Current == nil || s.Current.ID != questionID || s.Model.Answered[questionID] {
		return nil, ErrUnknownQuestion
	}

	q := *s.Current
	adjusted := AdjustScore(rawScore, q.Difficulty)
	correct := IsCorrect(adjusted)

	s.Model.History = append(s.Model.History, AnswerRecord{
		QuestionID:    q.ID,
		RawScore:      rawScore,
		AdjustedScore: adjusted,
		Correct:       correct,
		Topic:         q.Topic,
		Ordinal:       len(s.Model.History),
	})
	s.Model.Answered[q.ID] = true
	s.QuestionsAsked++

	s.Model.Ability = EstimateAbility(s.Model.History)
	s.Model.TopicMastery[q.Topic] = UpdateMastery(s.Model.TopicMastery[q.Topic], correct)

	res := &Result{
		Feedback: Feedback{
			QuestionID:    q.ID,
			Topic:         q.Topic,
			RawScore:      rawScore,
			AdjustedScore: adjusted,
			Correct:       correct,
			Ability:       ClampAbility(s.Model.Ability),
			TopicMastery:  s.Model.TopicMastery[q.Topic],
		},
	}

	if s.QuestionsAsked >= s.MaxQuestions {
		s.complete()
		res.IsComplete = true
		return res, nil
	}

	next, err := SelectNext(s.Bank, s.Model)
	if err != nil {
		// Bank exhausted before the question limit: end early, not an error.
		s.complete()
		res.IsComplete = true
		return res, nil
	}

	s.Current = next
	res.NextQuestion = next
	return res, nil
}

// Snapshot returns a read-only view of the session. The mastery map is a
// copy; mutating it does not affect the session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Ability:        ClampAbility(s.Model.Ability),
		TopicMastery:   s.Model.MasterySnapshot(),
		QuestionsAsked: s.QuestionsAsked,
		MaxQuestions:   s.MaxQuestions,
		IsComplete:     s.State == StateComplete,
		Current:        s.Current,
	}
}

// IsComplete reports whether the session reached its terminal state.
func (s *Session) IsComplete() bool {
	return s.State == StateComplete
}

func (s *Session) complete() {
	s.State = StateComplete
	s.Current = nil
}
