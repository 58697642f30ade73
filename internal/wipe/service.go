// Package wipe implements the erasure orchestrator: the state machine that
// turns a delete request into a bulletpoint preview, per-domain deletion,
// one immutable audit record, and fire-and-forget notifications.
package wipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/platform/metrics"
	"datacustody/internal/user"
	"datacustody/pkg/requestcontext"
)

var tracer = otel.Tracer("datacustody/wipe")

var (
	// ErrConfirmationMismatch means the self-service requester did not retype
	// the configured confirmation phrase. No state changed; retryable.
	ErrConfirmationMismatch = errors.New("confirmation phrase does not match")

	// ErrNotEligible means a lifecycle wipe's pre-action re-check failed: the
	// user became active between worklist generation and deletion. Nothing
	// was touched.
	ErrNotEligible = errors.New("user no longer eligible for lifecycle deletion")
)

// EligibilityChecker re-validates lifecycle eligibility immediately before a
// lifecycle-triggered wipe acts. Implemented by the lifecycle service.
type EligibilityChecker interface {
	Eligible(ctx context.Context, userID int64) (bool, error)
}

// Request describes one erasure to execute. Actor identity, requester IP and
// the replay flag travel in the context, set by HTTP middleware or the CLI.
type Request struct {
	UserID int64
	Type   domain.WipeType

	// ConfirmPhrase is the phrase the requester retyped. Only consulted for
	// self-service wipes; admin and lifecycle wipes skip confirmation.
	ConfirmPhrase string
}

// Service is the erasure orchestrator. It is constructed with its
// collaborators explicitly; nothing is looked up from ambient state.
type Service struct {
	dispatcher  *dispatch.Dispatcher
	store       Store
	notifier    *Notifier
	users       user.Store
	locker      Locker
	eligibility EligibilityChecker
	phrase      string
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithEligibilityChecker enables the pre-action re-check for lifecycle wipes.
func WithEligibilityChecker(c EligibilityChecker) Option {
	return func(s *Service) { s.eligibility = c }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService builds the orchestrator. confirmPhrase is the exact phrase a
// self-service requester must retype.
func NewService(
	dispatcher *dispatch.Dispatcher,
	store Store,
	notifier *Notifier,
	users user.Store,
	locker Locker,
	confirmPhrase string,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		dispatcher: dispatcher,
		store:      store,
		notifier:   notifier,
		users:      users,
		locker:     locker,
		phrase:     strings.TrimSpace(confirmPhrase),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEligibilityChecker wires the lifecycle re-check after construction. The
// lifecycle service needs this service to execute wipes, so the two cannot be
// fully built in either order.
func (s *Service) SetEligibilityChecker(c EligibilityChecker) {
	s.eligibility = c
}

// Preview returns the bulletpoint strings describing what an erasure of this
// user would do, concatenated across domains in registry order. Handler
// failures are logged and the remaining domains' lines still returned.
func (s *Service) Preview(ctx context.Context, userID int64, wipeType domain.WipeType) ([]string, error) {
	if !wipeType.IsValid() {
		return nil, fmt.Errorf("preview: invalid wipe type %q", wipeType)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	lines, failures := s.dispatcher.BulletpointsAll(ctx, userID, wipeType)
	for _, f := range failures {
		s.logger.WarnContext(ctx, "bulletpoint preview failed for domain", "domain", f.Domain, "error", f.Err)
	}
	return lines, nil
}

// Execute runs the full erasure state machine for one user:
//
//	Requested -> BulletpointsPreviewed -> Confirmed -> DomainsProcessing
//	          -> AuditRecorded -> NotificationsSent
//
// Domain failures do not stop the run; once the request is confirmed an
// audit record is written even if every domain failed, so there is always a
// durable trace of the attempt. Only audit persistence failure is fatal.
func (s *Service) Execute(ctx context.Context, req Request) (*AuditRecord, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("execute wipe: invalid wipe type %q", req.Type)
	}

	ctx, span := tracer.Start(ctx, "wipe.execute")
	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.String("type", req.Type.String()),
	)
	defer span.End()

	s.transition(ctx, req, StateRequested)

	// Lifecycle wipes re-check eligibility before anything is touched, to
	// guard against the user having become active since the worklist was
	// generated.
	if req.Type == domain.WipeTypeLifecycle && s.eligibility != nil {
		eligible, err := s.eligibility.Eligible(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("lifecycle eligibility re-check: %w", err)
		}
		if !eligible {
			if s.metrics != nil {
				s.metrics.LifecycleSkipped.Inc()
			}
			return nil, ErrNotEligible
		}
	}

	usr, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("execute wipe: %w", err)
	}

	release, err := s.locker.Acquire(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The bulletpoint list is captured now, before domains start deleting,
	// because the notification templates reference it afterwards.
	bullets, previewFailures := s.dispatcher.BulletpointsAll(ctx, req.UserID, req.Type)
	for _, f := range previewFailures {
		s.logger.WarnContext(ctx, "bulletpoint preview failed for domain", "domain", f.Domain, "error", f.Err)
	}
	s.transition(ctx, req, StateBulletpointsPreviewed)

	if req.Type == domain.WipeTypeUser {
		if strings.TrimSpace(req.ConfirmPhrase) != s.phrase {
			return nil, ErrConfirmationMismatch
		}
	}
	s.transition(ctx, req, StateConfirmed)

	// From here on an audit record must be written no matter what the
	// domains do.
	s.transition(ctx, req, StateDomainsProcessing)
	reports, failures := s.dispatcher.DeleteAll(ctx, req.UserID, req.Type)
	for _, f := range failures {
		s.logger.ErrorContext(ctx, "domain deletion failed, continuing",
			"domain", f.Domain,
			"user_id", req.UserID,
			"error", f.Err,
		)
	}

	actor := requestcontext.ActorID(ctx)
	if actor == 0 {
		actor = req.UserID
	}
	rec := &AuditRecord{
		UserID:      req.UserID,
		CreatedBy:   actor,
		CreatedOn:   requestcontext.Now(ctx).UTC(),
		RequesterIP: requestcontext.ClientIP(ctx),
		Type:        req.Type,
		Items:       reports,
	}
	if err := s.store.Record(ctx, rec); err != nil {
		// Deletions already performed cannot be rolled back; surface the
		// persistence failure so the caller knows the trace is missing.
		span.RecordError(err)
		return nil, fmt.Errorf("persist wipe audit: %w", err)
	}
	s.transition(ctx, req, StateAuditRecorded)

	replaying := requestcontext.Replaying(ctx)
	s.notifier.RecordSaved(ctx, SavedEvent{
		Record:       rec,
		User:         usr,
		Bulletpoints: bullets,
		Replaying:    replaying,
	})
	if !replaying {
		s.transition(ctx, req, StateNotificationsSent)
	}

	if s.metrics != nil {
		s.metrics.IncWipe(req.Type.String())
	}
	s.logger.InfoContext(ctx, "wipe completed",
		"user_id", req.UserID,
		"type", req.Type,
		"audit_id", rec.ID,
		"domains_cleaned", len(reports),
		"domains_failed", len(failures),
		"user_agent", requestcontext.UserAgent(ctx),
	)
	return rec, nil
}

// ListAudits returns a user's audit records, newest first.
func (s *Service) ListAudits(ctx context.Context, userID int64) ([]*AuditRecord, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) transition(ctx context.Context, req Request, state State) {
	s.logger.DebugContext(ctx, "wipe state",
		"user_id", req.UserID,
		"type", req.Type,
		"state", string(state),
	)
}
