package chat

import "context"

// Repository persists chats and their bans.
type Repository interface {
	Upsert(ctx context.Context, chatID int64, firstName, username string) error
	Remove(ctx context.Context, chatID int64) error
	Get(ctx context.Context, chatID int64) (*Chat, error)
	List(ctx context.Context) ([]*Chat, error) // most recently active first
	Count(ctx context.Context) (int, error)

	SetLastMessage(ctx context.Context, chatID int64, messageID int) error
	SetLastStart(ctx context.Context, chatID int64, ts int64) error
	Touch(ctx context.Context, chatID int64, ts int64) error

	// ListDailyRecipients returns chats with reminders on and no personal reminder time.
	ListDailyRecipients(ctx context.Context) ([]*Chat, error)
	// ListByReminderTime returns chats with reminders on and the given personal time (HH:MM).
	ListByReminderTime(ctx context.Context, hhmm string) ([]*Chat, error)
	SetReminderEnabled(ctx context.Context, chatID int64, enabled bool) error
	SetReminderTime(ctx context.Context, chatID int64, hhmm string) error
	SetLanguage(ctx context.Context, chatID int64, lang string) error

	// Ban records the ban and removes the chat from subscriptions.
	Ban(ctx context.Context, chatID int64, reason string, ts int64) error
	Unban(ctx context.Context, chatID int64) error
	IsBanned(ctx context.Context, chatID int64) (bool, error)
	ListBanned(ctx context.Context) ([]*Ban, error)
}
