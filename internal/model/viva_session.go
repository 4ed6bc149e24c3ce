package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oralis/viva-backend/internal/adaptive"
)

// SessionStatus enumerates viva session states as persisted.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
)

// VivaSession is a student's viva attempt as stored in PostgreSQL. The live
// adaptive state lives in the session store while the viva is running; this
// row carries the final outcome.
type VivaSession struct {
	ID             uuid.UUID          `json:"id"`
	VivaID         uuid.UUID          `json:"viva_id"`
	StudentID      int                `json:"student_id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     *time.Time         `json:"finished_at,omitempty"`
	Status         SessionStatus      `json:"status"`
	FinalAbility   *float64           `json:"final_ability,omitempty"`
	TopicMastery   map[string]float64 `json:"topic_mastery,omitempty"`
	QuestionsAsked int                `json:"questions_asked"`
}

// VivaResult is one row of the examiner's results listing.
type VivaResult struct {
	SessionID      uuid.UUID          `json:"session_id"`
	StudentID      int                `json:"student_id"`
	StudentNumber  string             `json:"student_number"`
	StudentName    string             `json:"student_name"`
	Status         SessionStatus      `json:"status"`
	Ability        *float64           `json:"ability,omitempty"`
	TopicMastery   map[string]float64 `json:"topic_mastery,omitempty"`
	QuestionsAsked int                `json:"questions_asked"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     *time.Time         `json:"finished_at,omitempty"`
}

// SessionResult is the payload queued for the result worker when a session
// completes or is abandoned. It carries everything the external report
// generator needs: final ability, per-topic mastery, and the full history.
type SessionResult struct {
	SessionID      string                 `json:"session_id"`
	VivaID         string                 `json:"viva_id"`
	StudentID      int                    `json:"student_id"`
	Status         SessionStatus          `json:"status"`
	Ability        float64                `json:"ability"`
	TopicMastery   map[string]float64     `json:"topic_mastery"`
	QuestionsAsked int                    `json:"questions_asked"`
	FinishedAt     time.Time              `json:"finished_at"`
	History        []adaptive.AnswerRecord `json:"history"`
}

// SubmitAnswerRequest is the payload for submitting a graded answer. The raw
// score comes from the trusted grading pipeline; a pointer keeps a genuine 0
// distinguishable from a missing field.
type SubmitAnswerRequest struct {
	QuestionID int64    `json:"question_id" binding:"required"`
	RawScore   *float64 `json:"raw_score" binding:"required,gte=0,lte=100"`
}

// SubmitAnswerResponse is returned after each scored answer.
type SubmitAnswerResponse struct {
	Feedback     adaptive.Feedback   `json:"feedback"`
	NextQuestion *QuestionForStudent `json:"next_question,omitempty"`
	IsComplete   bool                `json:"is_complete"`
}

// SessionStateResponse is the read-only snapshot for reconnect/refresh.
type SessionStateResponse struct {
	SessionID       string              `json:"session_id"`
	Ability         float64             `json:"ability"`
	TopicMastery    map[string]float64  `json:"topic_mastery"`
	QuestionsAsked  int                 `json:"questions_asked"`
	MaxQuestions    int                 `json:"max_questions"`
	IsComplete      bool                `json:"is_complete"`
	CurrentQuestion *QuestionForStudent `json:"current_question,omitempty"`
}
