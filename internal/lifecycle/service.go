package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"datacustody/internal/domain"
	"datacustody/internal/platform/metrics"
	"datacustody/internal/user"
	"datacustody/internal/wipe"
	"datacustody/pkg/email"
	"datacustody/pkg/requestcontext"
)

// Wiper executes one erasure. Implemented by the wipe orchestrator.
type Wiper interface {
	Execute(ctx context.Context, req wipe.Request) (*wipe.AuditRecord, error)
}

// Service builds lifecycle worklists and runs the unattended deletion batch.
type Service struct {
	users   user.Store
	wiper   Wiper
	sender  email.Sender
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithSender enables the pre-deletion warning mails.
func WithSender(sender email.Sender) Option {
	return func(s *Service) { s.sender = sender }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(users user.Store, wiper Wiper, policy Policy, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{users: users, wiper: wiper, policy: policy, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eligible re-evaluates one account against the policy. It implements the
// wipe orchestrator's pre-action re-check, closing the race between worklist
// generation and deletion.
func (s *Service) Eligible(ctx context.Context, userID int64) (bool, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	eligible := EligibleAt(u, requestcontext.Now(ctx), s.policy)
	if s.metrics != nil {
		s.metrics.LifecycleEvaluated.Inc()
	}
	return eligible, nil
}

// Candidates returns the accounts eligible for unattended deletion as of the
// given instant. The snapshots are valid only for that instant; Run
// re-validates each one before acting.
func (s *Service) Candidates(ctx context.Context, asOf time.Time) ([]domain.LifecycleCandidate, error) {
	cutoff := asOf.Add(-s.policy.InactivityThreshold)
	users, err := s.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list lifecycle candidates: %w", err)
	}

	candidates := make([]domain.LifecycleCandidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, Candidate(u, asOf, s.policy))
		if s.metrics != nil {
			s.metrics.LifecycleEvaluated.Inc()
		}
	}
	return candidates, nil
}

// BatchResult summarizes one lifecycle pass. Per-user failures are counted,
// not fatal; the batch itself fails only when it could not start.
type BatchResult struct {
	Wiped   int
	Skipped int
	Failed  int
}

// Run executes lifecycle deletions for every eligible account.
func (s *Service) Run(ctx context.Context) (BatchResult, error) {
	asOf := requestcontext.Now(ctx)
	candidates, err := s.Candidates(ctx, asOf)
	if err != nil {
		return BatchResult{}, err
	}

	var result BatchResult
	for _, c := range candidates {
		_, err := s.wiper.Execute(ctx, wipe.Request{UserID: c.UserID, Type: domain.WipeTypeLifecycle})
		switch {
		case errors.Is(err, wipe.ErrNotEligible):
			// Became active between worklist generation and deletion.
			result.Skipped++
			s.logger.InfoContext(ctx, "lifecycle deletion skipped, user active again", "user_id", c.UserID)
		case errors.Is(err, wipe.ErrWipeInProgress):
			result.Skipped++
			s.logger.InfoContext(ctx, "lifecycle deletion skipped, wipe already running", "user_id", c.UserID)
		case err != nil:
			result.Failed++
			s.logger.ErrorContext(ctx, "lifecycle deletion failed", "user_id", c.UserID, "error", err)
		default:
			result.Wiped++
		}
	}

	s.logger.InfoContext(ctx, "lifecycle batch finished",
		"candidates", len(candidates),
		"wiped", result.Wiped,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// Notify warns the accounts inside the grace window that they are about to
// age out. Returns the number of warning mails sent.
func (s *Service) Notify(ctx context.Context) (int, error) {
	if s.sender == nil {
		return 0, errors.New("no mail sender configured")
	}

	asOf := requestcontext.Now(ctx)
	// Everyone past (threshold - grace) is either eligible or in the warning
	// window; only the latter get mail.
	cutoff := asOf.Add(-s.policy.InactivityThreshold + s.policy.GracePeriod)
	users, err := s.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list accounts for lifecycle warning: %w", err)
	}

	sent := 0
	for _, u := range users {
		if !WarnAt(u, asOf, s.policy) || u.Email == "" {
			continue
		}
		name := u.Name
		if name == "" {
			name, _ = email.DeriveNameFromEmail(u.Email)
		}
		msg, err := email.Render("user_warnlifecycle", map[string]string{
			"NAME":     name,
			"USERNAME": u.Username,
			"EMAIL":    u.Email,
		})
		if err != nil {
			return sent, err
		}
		msg.To = u.Email
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "lifecycle warning mail failed", "user_id", u.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
