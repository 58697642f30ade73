// Package actionlog owns the user action audit trail domain.
package actionlog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"datacustody/internal/domain"
	"datacustody/internal/export"
)

// Entry is one recorded user action.
type Entry struct {
	ID        int64
	UserID    int64
	Action    string
	IP        string
	CreatedOn time.Time
}

type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Name() string { return "actionlog" }

func (h *Handler) Export(ctx context.Context, userID int64) (*export.Document, error) {
	entries, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list action entries: %w", err)
	}

	doc := export.NewDocument()
	dom := doc.AddDomain("actionlog", "Recorded account actions")
	for _, e := range entries {
		dom.AddItem(strconv.FormatInt(e.ID, 10)).
			AddColumn("action", e.Action).
			AddColumn("requester_ip", e.IP).
			AddColumn("created_on", e.CreatedOn.UTC().Format(time.RFC3339))
	}
	return doc, nil
}

func (h *Handler) Delete(ctx context.Context, userID int64, _ domain.WipeType) (domain.DeletionReport, error) {
	ids, err := h.store.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete action entries: %w", err)
	}

	report := domain.NewDeletionReport()
	for _, id := range ids {
		report.Add("entries", strconv.FormatInt(id, 10))
	}
	return report, nil
}

func (h *Handler) Bulletpoints(ctx context.Context, userID int64, _ domain.WipeType) ([]string, error) {
	entries, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count action entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return []string{fmt.Sprintf("Erase %d recorded account action(s)", len(entries))}, nil
}
