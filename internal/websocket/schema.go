package websocket

import "github.com/unisphere/exam-gateway/internal/session"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is the single client → server message shape; unused fields are
// ignored per action.
type Request struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	OptionID   string `json:"option_id,omitempty"`
	Move       string `json:"move,omitempty"` // next | previous | jump
	Index      int    `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse carries the attempt state, pushed every clock tick and
// after every accepted action.
type SnapshotResponse struct {
	Event    Event            `json:"event"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
