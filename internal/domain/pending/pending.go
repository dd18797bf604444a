package pending

import (
	"context"
	"time"
)

// Action names the free-text answer the bot is waiting for.
type Action string

const (
	ActionBroadcast    Action = "broadcast_wait"
	ActionSendTime     Action = "set_time_wait"
	ActionReminderTime Action = "user_reminder_time_wait"
)

// Input is an outstanding prompt addressed to one Telegram user.
type Input struct {
	OwnerID   int64  `db:"owner_id"`
	Action    Action `db:"action"`
	Payload   string `db:"payload"`
	CreatedAt int64  `db:"created_at"`
}

// Expired reports whether the prompt is older than ttl at now. A zero ttl never expires.
func (i *Input) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(time.Unix(i.CreatedAt, 0)) > ttl
}

// Repository stores at most one prompt per owner.
type Repository interface {
	Set(ctx context.Context, in *Input) error
	Get(ctx context.Context, ownerID int64) (*Input, error)
	Clear(ctx context.Context, ownerID int64) error
}
