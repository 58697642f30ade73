package ars

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

func (s *PostgresStore) ListLogsByUser(ctx context.Context, userID int64) ([]LogEntry, error) {
	query := `
		SELECT id, user_id, filename, version, downloaded_on
		FROM ars_log
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query download logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.UserID, &l.Filename, &l.Version, &l.DownloadedOn); err != nil {
			return nil, fmt.Errorf("scan download log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate download logs: %w", err)
	}
	return logs, nil
}

func (s *PostgresStore) ListDownloadIDsByUser(ctx context.Context, userID int64) ([]DownloadID, error) {
	query := `
		SELECT id, user_id, label
		FROM ars_dlid_labels
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query download ids: %w", err)
	}
	defer rows.Close()

	var labels []DownloadID
	for rows.Next() {
		var d DownloadID
		if err := rows.Scan(&d.ID, &d.UserID, &d.Label); err != nil {
			return nil, fmt.Errorf("scan download id: %w", err)
		}
		labels = append(labels, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate download ids: %w", err)
	}
	return labels, nil
}

func (s *PostgresStore) DeleteLogsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return s.deleteReturningIDs(ctx, `DELETE FROM ars_log WHERE user_id = $1 RETURNING id`, userID, "download logs")
}

func (s *PostgresStore) DeleteDownloadIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return s.deleteReturningIDs(ctx, `DELETE FROM ars_dlid_labels WHERE user_id = $1 RETURNING id`, userID, "download ids")
}

func (s *PostgresStore) deleteReturningIDs(ctx context.Context, query string, userID int64, what string) ([]int64, error) {
	var execer interface {
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		execer = tx
	}

	rows, err := execer.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", what, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted %s id: %w", what, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted %s ids: %w", what, err)
	}
	return ids, nil
}
