package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oralis/viva-backend/internal/adaptive"
)

// VivaStatus enumerates the possible states of a viva.
type VivaStatus string

const (
	VivaStatusDraft     VivaStatus = "DRAFT"
	VivaStatusPublished VivaStatus = "PUBLISHED"
	VivaStatusArchived  VivaStatus = "ARCHIVED"
)

// Viva represents one oral exam definition: a titled question bank with an
// entry token and a question limit per session.
type Viva struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Subject        string     `json:"subject"`
	AuthorID       int        `json:"author_id"`
	MaxQuestions   int        `json:"max_questions"`
	EntryToken     string     `json:"entry_token,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	QuestionCount  int        `json:"question_count"`
	Status         VivaStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateVivaRequest is the payload for creating a new viva.
type CreateVivaRequest struct {
	Title          string     `json:"title" binding:"required,min=3,max=255"`
	Subject        string     `json:"subject" binding:"required,min=2,max=100"`
	MaxQuestions   int        `json:"max_questions" binding:"omitempty,min=1,max=50"`
	EntryToken     string     `json:"entry_token" binding:"omitempty,min=4,max=20"`
	ScheduledStart *time.Time `json:"scheduled_start" binding:"omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end" binding:"omitempty,gtfield=ScheduledStart"`
}

// UpdateVivaRequest is the payload for updating an existing draft viva.
type UpdateVivaRequest struct {
	Title          string     `json:"title" binding:"omitempty,min=3,max=255"`
	Subject        string     `json:"subject" binding:"omitempty,min=2,max=100"`
	MaxQuestions   *int       `json:"max_questions" binding:"omitempty,min=1,max=50"`
	EntryToken     string     `json:"entry_token" binding:"omitempty,min=4,max=20"`
	ScheduledStart *time.Time `json:"scheduled_start" binding:"omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end" binding:"omitempty,gtfield=ScheduledStart"`
}

// JoinVivaRequest is the payload for a student joining a viva.
type JoinVivaRequest struct {
	// Empty is valid: vivas without an entry token are open to any student.
	EntryToken string `json:"entry_token" binding:"omitempty,min=4,max=20"`
}

// VivaBank is the Redis-cached payload the session service builds adaptive
// sessions from. Difficulty and topic stay server-side; students only ever
// see the selected question's prompt.
type VivaBank struct {
	VivaID       uuid.UUID           `json:"viva_id"`
	Title        string              `json:"title"`
	MaxQuestions int                 `json:"max_questions"`
	Questions    []adaptive.Question `json:"questions"`
}

// QuestionForStudent strips the calibration fields off a bank question before
// it leaves the server.
type QuestionForStudent struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// StudentView converts an engine question into its student-facing form.
func StudentView(q *adaptive.Question) *QuestionForStudent {
	if q == nil {
		return nil
	}
	return &QuestionForStudent{ID: q.ID, Text: q.Text}
}
