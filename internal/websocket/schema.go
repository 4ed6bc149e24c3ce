package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError            Event = "error"
	EventPong             Event = "pong"
	EventSessionStarted   Event = "session_started"
	EventAnswerScored     Event = "answer_scored"
	EventSessionCompleted Event = "session_completed"
	EventSessionAbandoned Event = "session_abandoned"
)

// MonitorEvent is the live-monitor payload published on a viva's Redis
// channel and relayed to every examiner watching it. Fields beyond the
// session identity are filled per event type.
type MonitorEvent struct {
	Event          Event    `json:"event"`
	SessionID      string   `json:"session_id"`
	StudentID      int      `json:"student_id"`
	QuestionsAsked int      `json:"questions_asked,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	Correct        *bool    `json:"correct,omitempty"`
	Ability        *float64 `json:"ability,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
