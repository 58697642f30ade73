package actionlog

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "datacustody/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, requester_ip, created_on
		FROM action_log
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query action entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.IP, &e.CreatedOn); err != nil {
			return nil, fmt.Errorf("scan action entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `DELETE FROM action_log WHERE user_id = $1 RETURNING id`

	var execer interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}

	rows, err := execer.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("delete action entries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted action id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted action ids: %w", err)
	}
	return ids, nil
}
