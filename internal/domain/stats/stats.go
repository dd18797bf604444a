package stats

import "context"

// EventType classifies a usage event.
type EventType string

const (
	EventInteraction EventType = "interaction"
	EventStart       EventType = "start"
	EventStop        EventType = "stop"
)

// Summary aggregates the usage counters shown to users and admins.
type Summary struct {
	TotalUsers        int `db:"total_users"`
	TotalInteractions int `db:"total_interactions"`
	ActiveToday       int `db:"active_today"`
}

// Repository records usage events.
type Repository interface {
	Log(ctx context.Context, event EventType, chatID int64, data string, ts int64) error
	// Summary counts chats, interaction events, and chats active after activeSince (unix seconds).
	Summary(ctx context.Context, activeSince int64) (*Summary, error)
}
