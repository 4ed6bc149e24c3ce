package adaptive

import "errors"

// Engine errors. All are detected before any state mutation, so a failed
// SubmitAnswer leaves the session exactly as it was.
var (
	// ErrInvalidScore means the raw score is outside [0,100].
	ErrInvalidScore = errors.New("raw score must be between 0 and 100")

	// ErrUnknownQuestion means the submitted question id does not match the
	// question currently awaiting an answer.
	ErrUnknownQuestion = errors.New("question is not awaiting an answer")

	// ErrEmptyBank means a session was requested with no questions.
	ErrEmptyBank = errors.New("question bank is empty")

	// ErrSessionClosed means a mutating call arrived after completion.
	ErrSessionClosed = errors.New("session is already complete")
)
