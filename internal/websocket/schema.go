package websocket

import "github.com/google/uuid"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer      Action = "answer"
	ActionReview      Action = "review"
	ActionSeek        Action = "seek"
	ActionTick        Action = "tick"
	ActionIntegrity   Action = "integrity"
	ActionSubmit      Action = "submit"
	ActionPing        Action = "ping"
	ActionWatchBranch Action = "watch_branch"
)

// Request carries every client action of the exam stream; unused fields
// stay at their zero value. A single shape keeps decoding to one pass.
type Request struct {
	Action Action `json:"action"`

	// answer / review
	QuestionID uuid.UUID `json:"question_id,omitempty"`
	Selected   *int      `json:"selected,omitempty"`
	Flagged    bool      `json:"flagged,omitempty"`

	// seek
	Index int `json:"index,omitempty"`

	// integrity
	EventType string `json:"event_type,omitempty"`
	Detail    string `json:"detail,omitempty"`

	// submit (final sync)
	Answers []SubmittedAnswer `json:"answers,omitempty"`

	// watch_branch (updates stream, admin only)
	Branch string `json:"branch,omitempty"`
}

// SubmittedAnswer mirrors the HTTP submit payload's answer entries.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Selected   int       `json:"selected"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSaved   Event = "saved"
	EventState   Event = "state"
	EventTick    Event = "tick"
	EventWarning Event = "warning"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
	EventError   Event = "error"
	EventUpdate  Event = "update"
)

type SavedResponse struct {
	Event      Event     `json:"event"`
	QuestionID uuid.UUID `json:"question_id"`
}

type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining_seconds"`
}

type WarningResponse struct {
	Event    Event `json:"event"`
	Warnings int   `json:"warnings"`
}

type GradedResponse struct {
	Event      Event       `json:"event"`
	TotalMarks int         `json:"total_marks"`
	Result     interface{} `json:"result"`
}

type StateResponse struct {
	Event   Event       `json:"event"`
	Session interface{} `json:"session"`
}

type UpdateResponse struct {
	Event   Event       `json:"event"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
