package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"class_schedule_bot/internal/domain/chat"
)

// Legacy rows may hold NULLs in columns added after they were written.
const chatColumns = `chat_id,
	COALESCE(first_name, '') AS first_name,
	COALESCE(username, '') AS username,
	last_message_id,
	COALESCE(last_start_ts, 0) AS last_start_ts,
	COALESCE(reminder_enabled, TRUE) AS reminder_enabled,
	COALESCE(reminder_time, '') AS reminder_time,
	COALESCE(language, 'uz') AS language,
	COALESCE(created_at, 0) AS created_at,
	COALESCE(last_interaction_ts, 0) AS last_interaction_ts`

type SQLChatRepository struct {
	db *sqlx.DB
}

func NewSQLChatRepository(db *sqlx.DB) *SQLChatRepository {
	return &SQLChatRepository{db: db}
}

func (r *SQLChatRepository) Upsert(ctx context.Context, chatID int64, firstName, username string) error {
	query := r.db.Rebind(`INSERT INTO chats (chat_id, first_name, username) VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET first_name = excluded.first_name, username = excluded.username`)
	if _, err := r.db.ExecContext(ctx, query, chatID, firstName, username); err != nil {
		return fmt.Errorf("error upserting chat %d: %w", chatID, err)
	}
	return nil
}

func (r *SQLChatRepository) Remove(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM chats WHERE chat_id = ?`), chatID); err != nil {
		return fmt.Errorf("error removing chat %d: %w", chatID, err)
	}
	return nil
}

func (r *SQLChatRepository) Get(ctx context.Context, chatID int64) (*chat.Chat, error) {
	c := &chat.Chat{}
	err := r.db.GetContext(ctx, c, r.db.Rebind(`SELECT `+chatColumns+` FROM chats WHERE chat_id = ?`), chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("error getting chat %d: %w", chatID, err)
	}
	return c, nil
}

func (r *SQLChatRepository) List(ctx context.Context) ([]*chat.Chat, error) {
	return r.selectChats(ctx, `SELECT `+chatColumns+` FROM chats ORDER BY last_interaction_ts DESC, chat_id`)
}

func (r *SQLChatRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chats`); err != nil {
		return 0, fmt.Errorf("error counting chats: %w", err)
	}
	return n, nil
}

func (r *SQLChatRepository) ListDailyRecipients(ctx context.Context) ([]*chat.Chat, error) {
	return r.selectChats(ctx, `SELECT `+chatColumns+` FROM chats
		WHERE COALESCE(reminder_enabled, TRUE) = ? AND COALESCE(reminder_time, '') = ''
		ORDER BY chat_id`, true)
}

func (r *SQLChatRepository) ListByReminderTime(ctx context.Context, hhmm string) ([]*chat.Chat, error) {
	return r.selectChats(ctx, `SELECT `+chatColumns+` FROM chats
		WHERE COALESCE(reminder_enabled, TRUE) = ? AND reminder_time = ?
		ORDER BY chat_id`, true, hhmm)
}

func (r *SQLChatRepository) selectChats(ctx context.Context, query string, args ...any) ([]*chat.Chat, error) {
	chats := make([]*chat.Chat, 0)
	if err := r.db.SelectContext(ctx, &chats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error listing chats: %w", err)
	}
	return chats, nil
}

func (r *SQLChatRepository) SetLastMessage(ctx context.Context, chatID int64, messageID int) error {
	return r.update(ctx, "last_message_id", chatID, messageID)
}

func (r *SQLChatRepository) SetLastStart(ctx context.Context, chatID int64, ts int64) error {
	return r.update(ctx, "last_start_ts", chatID, ts)
}

func (r *SQLChatRepository) Touch(ctx context.Context, chatID int64, ts int64) error {
	return r.update(ctx, "last_interaction_ts", chatID, ts)
}

func (r *SQLChatRepository) SetReminderEnabled(ctx context.Context, chatID int64, enabled bool) error {
	return r.update(ctx, "reminder_enabled", chatID, enabled)
}

func (r *SQLChatRepository) SetReminderTime(ctx context.Context, chatID int64, hhmm string) error {
	return r.update(ctx, "reminder_time", chatID, hhmm)
}

func (r *SQLChatRepository) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	return r.update(ctx, "language", chatID, lang)
}

// update sets a single column. column is always one of the constants above, never user input.
func (r *SQLChatRepository) update(ctx context.Context, column string, chatID int64, value any) error {
	query := r.db.Rebind(`UPDATE chats SET ` + column + ` = ? WHERE chat_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, value, chatID); err != nil {
		return fmt.Errorf("error updating %s of chat %d: %w", column, chatID, err)
	}
	return nil
}

func (r *SQLChatRepository) Ban(ctx context.Context, chatID int64, reason string, ts int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for ban: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO banned_chats (chat_id, reason, banned_at) VALUES (?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET reason = excluded.reason, banned_at = excluded.banned_at`), chatID, reason, ts)
	if err != nil {
		return fmt.Errorf("error banning chat %d: %w", chatID, err)
	}
	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM chats WHERE chat_id = ?`), chatID); err != nil {
		return fmt.Errorf("error removing banned chat %d: %w", chatID, err)
	}
	return tx.Commit()
}

func (r *SQLChatRepository) Unban(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM banned_chats WHERE chat_id = ?`), chatID); err != nil {
		return fmt.Errorf("error unbanning chat %d: %w", chatID, err)
	}
	return nil
}

func (r *SQLChatRepository) IsBanned(ctx context.Context, chatID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM banned_chats WHERE chat_id = ?`), chatID)
	if err != nil {
		return false, fmt.Errorf("error checking ban of chat %d: %w", chatID, err)
	}
	return n > 0, nil
}

func (r *SQLChatRepository) ListBanned(ctx context.Context) ([]*chat.Ban, error) {
	bans := make([]*chat.Ban, 0)
	err := r.db.SelectContext(ctx, &bans, `SELECT chat_id, COALESCE(reason, '') AS reason, COALESCE(banned_at, 0) AS banned_at
		FROM banned_chats ORDER BY banned_at DESC, chat_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing banned chats: %w", err)
	}
	return bans, nil
}
