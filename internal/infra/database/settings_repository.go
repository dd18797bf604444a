package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type SQLSettingsRepository struct {
	db *sqlx.DB
}

func NewSQLSettingsRepository(db *sqlx.DB) *SQLSettingsRepository {
	return &SQLSettingsRepository{db: db}
}

func (r *SQLSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := r.db.GetContext(ctx, &value, r.db.Rebind(`SELECT value FROM settings WHERE key = ?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error getting setting %s: %w", key, err)
	}
	return value.String, true, nil
}

func (r *SQLSettingsRepository) Set(ctx context.Context, key, value string) error {
	query := r.db.Rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("error setting %s: %w", key, err)
	}
	return nil
}
