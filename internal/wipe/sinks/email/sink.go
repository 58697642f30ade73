// Package email notifies the affected user and the configured administrators
// after an erasure's audit record has been persisted.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"datacustody/internal/wipe"
	pkgemail "datacustody/pkg/email"
)

// Sink renders type-specific templates and sends them over SMTP. Failures
// for the user mail and each admin mail are caught independently; none of
// them affect the already-persisted audit record.
type Sink struct {
	sender      pkgemail.Sender
	adminEmails []string
	siteName    string
	logger      *slog.Logger
}

func New(sender pkgemail.Sender, adminEmails []string, siteName string, logger *slog.Logger) *Sink {
	return &Sink{sender: sender, adminEmails: adminEmails, siteName: siteName, logger: logger}
}

func (s *Sink) Name() string { return "email" }

func (s *Sink) RecordSaved(ctx context.Context, ev wipe.SavedEvent) error {
	if ev.Replaying {
		return nil
	}

	tokens := s.tokens(ev)
	var errs []error

	if ev.User.Email != "" {
		if err := s.send(ctx, "user_"+ev.Record.Type.String(), ev.User.Email, tokens); err != nil {
			s.logger.ErrorContext(ctx, "user notification mail failed", "user_id", ev.Record.UserID, "error", err)
			errs = append(errs, err)
		}
	}

	for _, admin := range s.adminEmails {
		if err := s.send(ctx, "admin_"+ev.Record.Type.String(), admin, tokens); err != nil {
			s.logger.ErrorContext(ctx, "admin notification mail failed", "admin", admin, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Sink) send(ctx context.Context, template, to string, tokens map[string]string) error {
	msg, err := pkgemail.Render(template, tokens)
	if err != nil {
		return err
	}
	msg.To = to
	return s.sender.Send(ctx, msg)
}

func (s *Sink) tokens(ev wipe.SavedEvent) map[string]string {
	name := ev.User.Name
	if name == "" {
		first, _ := pkgemail.DeriveNameFromEmail(ev.User.Email)
		name = first
	}

	actions := "- nothing on record"
	if len(ev.Bulletpoints) > 0 {
		actions = "- " + strings.Join(ev.Bulletpoints, "\n- ")
	}

	return map[string]string{
		"NAME":     name,
		"USERNAME": ev.User.Username,
		"EMAIL":    ev.User.Email,
		"SITE":     s.siteName,
		"DATE":     ev.Record.CreatedOn.UTC().Format(time.RFC1123),
		"IP":       ev.Record.RequesterIP,
		"TYPE":     ev.Record.Type.String(),
		"ACTIONS":  actions,
		"USERID":   fmt.Sprintf("%d", ev.Record.UserID),
	}
}
