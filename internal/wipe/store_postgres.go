package wipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"datacustody/internal/domain"
	txcontext "datacustody/pkg/platform/tx"
)

// PostgresStore persists audit records in the wipe_audits table. Items are
// stored as JSONB so the per-domain report shapes stay schemaless.
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

func (s *PostgresStore) Record(ctx context.Context, rec *AuditRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal deletion reports: %w", err)
	}

	query := `
		INSERT INTO wipe_audits (id, user_id, created_by, created_on, requester_ip, wipe_type, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.CreatedBy,
		rec.CreatedOn,
		rec.RequesterIP,
		string(rec.Type),
		items,
	)
	if err != nil {
		return fmt.Errorf("insert wipe audit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]*AuditRecord, error) {
	query := `
		SELECT id, user_id, created_by, created_on, requester_ip, wipe_type, items
		FROM wipe_audits
		WHERE user_id = $1
		ORDER BY created_on DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query wipe audits: %w", err)
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		var (
			rec      AuditRecord
			wipeType string
			items    []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.CreatedBy, &rec.CreatedOn, &rec.RequesterIP, &wipeType, &items); err != nil {
			return nil, fmt.Errorf("scan wipe audit: %w", err)
		}
		rec.Type = domain.WipeType(wipeType)
		if err := json.Unmarshal(items, &rec.Items); err != nil {
			return nil, fmt.Errorf("unmarshal deletion reports: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wipe audits: %w", err)
	}
	return records, nil
}
