package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"class_schedule_bot/internal/domain/pending"
)

type SQLPendingRepository struct {
	db *sqlx.DB
}

func NewSQLPendingRepository(db *sqlx.DB) *SQLPendingRepository {
	return &SQLPendingRepository{db: db}
}

// Set replaces any prompt the owner already had.
func (r *SQLPendingRepository) Set(ctx context.Context, in *pending.Input) error {
	query := r.db.Rebind(`INSERT INTO pending_inputs (owner_id, action, payload, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET action = excluded.action, payload = excluded.payload, created_at = excluded.created_at`)
	if _, err := r.db.ExecContext(ctx, query, in.OwnerID, in.Action, in.Payload, in.CreatedAt); err != nil {
		return fmt.Errorf("error saving pending input for %d: %w", in.OwnerID, err)
	}
	return nil
}

func (r *SQLPendingRepository) Get(ctx context.Context, ownerID int64) (*pending.Input, error) {
	in := &pending.Input{}
	err := r.db.GetContext(ctx, in, r.db.Rebind(`SELECT owner_id, action, payload, created_at FROM pending_inputs WHERE owner_id = ?`), ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("error getting pending input for %d: %w", ownerID, err)
	}
	return in, nil
}

func (r *SQLPendingRepository) Clear(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM pending_inputs WHERE owner_id = ?`), ownerID); err != nil {
		return fmt.Errorf("error clearing pending input for %d: %w", ownerID, err)
	}
	return nil
}
