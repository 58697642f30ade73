// Package profile owns the account record domain. Unlike the other domains it
// never deletes its row: the account is pseudonymized in place so foreign
// keys elsewhere keep resolving.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"datacustody/internal/domain"
	"datacustody/internal/export"
	"datacustody/internal/user"
	"datacustody/pkg/platform/sentinel"
	"datacustody/pkg/requestcontext"
)

type Handler struct {
	users user.Store
}

func NewHandler(users user.Store) *Handler {
	return &Handler{users: users}
}

func (h *Handler) Name() string { return "profile" }

func (h *Handler) Export(ctx context.Context, userID int64) (*export.Document, error) {
	doc := export.NewDocument()
	dom := doc.AddDomain("users", "Account profile")

	u, err := h.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Pseudonymized {
		return doc, nil
	}

	item := dom.AddItem(strconv.FormatInt(u.ID, 10)).
		AddColumn("username", u.Username).
		AddColumn("name", u.Name).
		AddColumn("email", u.Email).
		AddColumn("register_date", u.RegisterDate.UTC().Format(time.RFC3339))
	if !u.LastVisitDate.IsZero() {
		item.AddColumn("last_visit_date", u.LastVisitDate.UTC().Format(time.RFC3339))
	}
	return doc, nil
}

func (h *Handler) Delete(ctx context.Context, userID int64, _ domain.WipeType) (domain.DeletionReport, error) {
	u, err := h.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.NewDeletionReport(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Pseudonymized {
		return domain.NewDeletionReport(), nil
	}

	if err := h.users.Pseudonymize(ctx, userID, requestcontext.Now(ctx).UTC()); err != nil {
		return nil, fmt.Errorf("pseudonymize user: %w", err)
	}

	report := domain.NewDeletionReport()
	report.Add("user", strconv.FormatInt(userID, 10))
	return report, nil
}

func (h *Handler) Bulletpoints(ctx context.Context, userID int64, _ domain.WipeType) ([]string, error) {
	u, err := h.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.Pseudonymized {
		return nil, nil
	}
	return []string{"Replace your name, username and email address with anonymous placeholders"}, nil
}
