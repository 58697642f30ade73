package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"datacustody/internal/domain"
	"datacustody/pkg/platform/sentinel"
	txcontext "datacustody/pkg/platform/tx"
)

// PostgresStore keeps one consent row per user in the consents table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Upsert(ctx context.Context, rec domain.ConsentRecord) error {
	query := `
		INSERT INTO consents (user_id, enabled, requester_ip, created_on)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    requester_ip = EXCLUDED.requester_ip,
		    created_on = EXCLUDED.created_on
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, rec.UserID, rec.Enabled, rec.RequesterIP, rec.CreatedOn)
	if err != nil {
		return fmt.Errorf("upsert consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID int64) (domain.ConsentRecord, error) {
	query := `
		SELECT user_id, enabled, requester_ip, created_on
		FROM consents
		WHERE user_id = $1
	`
	var rec domain.ConsentRecord
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&rec.UserID, &rec.Enabled, &rec.RequesterIP, &rec.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ConsentRecord{}, fmt.Errorf("consent for user %d: %w", userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("query consent: %w", err)
	}
	return rec, nil
}
