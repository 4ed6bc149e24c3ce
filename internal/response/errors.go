package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrLoginActive        ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrLoginInvalidated   ErrCode = "LOGIN_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrExaminerAccessOnly ErrCode = "EXAMINER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Viva-specific ─────────────────────────────────────────────────
	ErrVivaNotAvailable  ErrCode = "VIVA_NOT_AVAILABLE"
	ErrInvalidEntryToken ErrCode = "INVALID_ENTRY_TOKEN"
	ErrVivaNotPublished  ErrCode = "VIVA_NOT_PUBLISHED"
	ErrNotVivaAuthor     ErrCode = "NOT_VIVA_AUTHOR"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrVivaNotDraft      ErrCode = "VIVA_NOT_DRAFT"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrSessionComplete   ErrCode = "SESSION_COMPLETE"
	ErrQuestionNotAsked  ErrCode = "QUESTION_NOT_ASKED"
	ErrScoreOutOfRange   ErrCode = "SCORE_OUT_OF_RANGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid credentials."
	case ErrLoginActive:
		return "You are already logged in on another device."
	case ErrLoginInvalidated:
		return "Your login session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrExaminerAccessOnly:
		return "This resource is restricted to examiners."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Viva-specific ─────────────────────────────────────────────────
	case ErrVivaNotAvailable:
		return "This viva is not currently available."
	case ErrInvalidEntryToken:
		return "The viva entry token is invalid."
	case ErrVivaNotPublished:
		return "This viva has not been published."
	case ErrNotVivaAuthor:
		return "You are not the author of this viva."
	case ErrNoQuestions:
		return "This viva has no questions in its bank."
	case ErrVivaNotDraft:
		return "This viva is not in DRAFT status."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No active session found for this viva."
	case ErrSessionComplete:
		return "This session is already complete."
	case ErrQuestionNotAsked:
		return "This question is not awaiting an answer."
	case ErrScoreOutOfRange:
		return "The answer score must be between 0 and 100."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
