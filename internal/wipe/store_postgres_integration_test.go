//go:build integration

package wipe_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacustody/internal/domain"
	"datacustody/internal/wipe"
	txcontext "datacustody/pkg/platform/tx"
	"datacustody/pkg/testutil/containers"
)

const wipeAuditsSchema = `
CREATE TABLE IF NOT EXISTS wipe_audits (
	id            UUID PRIMARY KEY,
	user_id       BIGINT NOT NULL,
	created_by    BIGINT NOT NULL,
	created_on    TIMESTAMPTZ NOT NULL,
	requester_ip  TEXT NOT NULL DEFAULT '',
	wipe_type     TEXT NOT NULL,
	items         JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS wipe_audits_user_idx ON wipe_audits (user_id, created_on DESC);
`

func TestPostgresStoreRoundtrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, wipeAuditsSchema)

	store := wipe.NewPostgresStore(pg.DB)
	ctx := context.Background()

	first := &wipe.AuditRecord{
		UserID:      42,
		CreatedBy:   7,
		CreatedOn:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RequesterIP: "203.0.113.9",
		Type:        domain.WipeTypeAdmin,
		Items: map[string]domain.DeletionReport{
			"ars":        {"log": {"1", "2", "3"}, "dlid": {"7"}},
			"loginguard": {"tfa": {"11"}},
		},
	}
	require.NoError(t, store.Record(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID, "Record assigns an ID")

	second := &wipe.AuditRecord{
		UserID:    42,
		CreatedBy: 42,
		CreatedOn: first.CreatedOn.Add(time.Hour),
		Type:      domain.WipeTypeUser,
		Items:     map[string]domain.DeletionReport{},
	}
	require.NoError(t, store.Record(ctx, second))

	records, err := store.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	got := records[1]
	assert.Equal(t, int64(7), got.CreatedBy)
	assert.Equal(t, "203.0.113.9", got.RequesterIP)
	assert.Equal(t, domain.WipeTypeAdmin, got.Type)
	assert.Equal(t, first.Items["ars"]["log"], got.Items["ars"]["log"])

	other, err := store.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPostgresStoreHonorsContextTransaction(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, wipeAuditsSchema)

	store := wipe.NewPostgresStore(pg.DB)
	ctx := context.Background()

	sqlTx, err := pg.DB.BeginTx(ctx, nil)
	require.NoError(t, err)

	rec := &wipe.AuditRecord{
		UserID:    9,
		CreatedBy: 9,
		CreatedOn: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Type:      domain.WipeTypeUser,
		Items:     map[string]domain.DeletionReport{},
	}
	require.NoError(t, store.Record(txcontext.WithTx(ctx, sqlTx), rec))
	require.NoError(t, sqlTx.Rollback())

	// The insert rode the rolled-back transaction, so nothing persisted.
	records, err := store.ListByUser(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, records)
}
