package chat

import "database/sql"

// DefaultLanguage is the only interface language currently offered.
const DefaultLanguage = "uz"

// Chat is a subscribed private chat, group or channel.
// Timestamps are unix seconds.
type Chat struct {
	ID                int64         `db:"chat_id"`
	FirstName         string        `db:"first_name"` // user first name or group title
	Username          string        `db:"username"`
	LastMessageID     sql.NullInt64 `db:"last_message_id"`
	LastStartAt       int64         `db:"last_start_ts"`
	ReminderEnabled   bool          `db:"reminder_enabled"`
	ReminderTime      string        `db:"reminder_time"` // HH:MM, empty means the global send time
	Language          string        `db:"language"`
	CreatedAt         int64         `db:"created_at"`
	LastInteractionAt int64         `db:"last_interaction_ts"`
}

// IsGroup reports whether the chat is a group or channel. Telegram uses negative ids for those.
func (c *Chat) IsGroup() bool {
	return c.ID < 0
}

// DisplayName returns the best human-readable label for the chat.
func (c *Chat) DisplayName() string {
	switch {
	case c.FirstName != "":
		return c.FirstName
	case c.Username != "":
		return c.Username
	default:
		return ""
	}
}

// Ban records a chat that must never receive messages.
type Ban struct {
	ChatID   int64  `db:"chat_id"`
	Reason   string `db:"reason"`
	BannedAt int64  `db:"banned_at"`
}
