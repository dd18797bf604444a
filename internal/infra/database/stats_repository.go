package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"class_schedule_bot/internal/domain/stats"
)

type SQLStatsRepository struct {
	db *sqlx.DB
}

func NewSQLStatsRepository(db *sqlx.DB) *SQLStatsRepository {
	return &SQLStatsRepository{db: db}
}

func (r *SQLStatsRepository) Log(ctx context.Context, event stats.EventType, chatID int64, data string, ts int64) error {
	query := r.db.Rebind(`INSERT INTO stats (event_type, chat_id, data, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, event, chatID, data, ts); err != nil {
		return fmt.Errorf("error logging %s event for chat %d: %w", event, chatID, err)
	}
	return nil
}

func (r *SQLStatsRepository) Summary(ctx context.Context, activeSince int64) (*stats.Summary, error) {
	query := r.db.Rebind(`SELECT
		(SELECT COUNT(*) FROM chats) AS total_users,
		(SELECT COUNT(*) FROM stats WHERE event_type = ?) AS total_interactions,
		(SELECT COUNT(*) FROM chats WHERE last_interaction_ts > ?) AS active_today`)
	s := &stats.Summary{}
	if err := r.db.GetContext(ctx, s, query, stats.EventInteraction, activeSince); err != nil {
		return nil, fmt.Errorf("error computing stats summary: %w", err)
	}
	return s, nil
}
