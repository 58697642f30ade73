package loginguard

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "datacustody/pkg/platform/tx"
)

// PostgresStore reads and deletes rows in the loginguard_tfa table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]Record, error) {
	query := `
		SELECT id, user_id, method, title, created_on, last_used_on
		FROM loginguard_tfa
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query tfa records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.Method, &r.Title, &r.CreatedOn, &r.LastUsedOn); err != nil {
			return nil, fmt.Errorf("scan tfa record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tfa records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `DELETE FROM loginguard_tfa WHERE user_id = $1 RETURNING id`

	var execer interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}

	rows, err := execer.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("delete tfa records: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted tfa id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted tfa ids: %w", err)
	}
	return ids, nil
}
