package model

import (
	"time"

	"github.com/google/uuid"
)

// BankQuestion is a question row in a viva's bank. Difficulty and topic are
// assigned by the external question generator and never change afterwards.
type BankQuestion struct {
	ID         int64     `json:"id"`
	VivaID     uuid.UUID `json:"viva_id"`
	Text       string    `json:"text"`
	Difficulty float64   `json:"difficulty"`
	Topic      string    `json:"topic"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddQuestionRequest is the payload for one question in a bank replacement.
type AddQuestionRequest struct {
	Text       string  `json:"text" binding:"required,min=1,max=2000"`
	Difficulty float64 `json:"difficulty" binding:"gte=-3,lte=3"`
	Topic      string  `json:"topic" binding:"required,min=1,max=100"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a viva's bank.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
