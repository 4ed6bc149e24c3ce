package adaptive

// Question is a single bank entry as seen by the engine. The prompt text is
// opaque here; it is generated and graded by external services.
type Question struct {
	ID         int64   `json:"id"`
	Text       string  `json:"text"`
	Difficulty float64 `json:"difficulty"` // [-3, +3], fixed at creation
	Topic      string  `json:"topic"`
}

// Difficulty bounds shared by the engine and request validation.
const (
	DifficultyMin = -3.0
	DifficultyMax = 3.0
)
