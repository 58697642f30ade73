// Package loginguard owns the two-factor authentication records domain.
package loginguard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"datacustody/internal/domain"
	"datacustody/internal/export"
)

// Record is one configured two-factor method.
type Record struct {
	ID         int64
	UserID     int64
	Method     string
	Title      string
	CreatedOn  time.Time
	LastUsedOn time.Time
}

// Store gives the handler access to the domain's rows.
type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]Record, error)
	// DeleteByUser removes the user's rows and returns their identifiers.
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
}

// Handler implements the data-domain contract for two-factor records.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Name() string { return "loginguard" }

func (h *Handler) Export(ctx context.Context, userID int64) (*export.Document, error) {
	records, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tfa records: %w", err)
	}

	doc := export.NewDocument()
	dom := doc.AddDomain("loginguard_tfa", "Two-factor authentication methods")
	for _, r := range records {
		dom.AddItem(strconv.FormatInt(r.ID, 10)).
			AddColumn("method", r.Method).
			AddColumn("title", r.Title).
			AddColumn("created_on", r.CreatedOn.UTC().Format(time.RFC3339)).
			AddColumn("last_used_on", r.LastUsedOn.UTC().Format(time.RFC3339))
	}
	return doc, nil
}

func (h *Handler) Delete(ctx context.Context, userID int64, _ domain.WipeType) (domain.DeletionReport, error) {
	ids, err := h.store.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete tfa records: %w", err)
	}

	report := domain.NewDeletionReport()
	for _, id := range ids {
		report.Add("tfa", strconv.FormatInt(id, 10))
	}
	return report, nil
}

func (h *Handler) Bulletpoints(ctx context.Context, userID int64, _ domain.WipeType) ([]string, error) {
	records, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tfa records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Remove %d two-factor authentication method(s)", len(records))}, nil
}
