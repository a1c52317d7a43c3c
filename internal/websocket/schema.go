package websocket

import "github.com/stemsi/riskwatch-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady        Event = "ready"
	EventNotification Event = "notification"
	EventPong         Event = "pong"
	EventError        Event = "error"
)

// ReadyResponse is sent once the stream is subscribed.
type ReadyResponse struct {
	Event     Event `json:"event"`
	AdvisorID int   `json:"advisor_id"`
}

// NotificationResponse carries one notification to the advisor.
type NotificationResponse struct {
	Event        Event              `json:"event"`
	Notification model.Notification `json:"notification"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
