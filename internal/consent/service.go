package consent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"datacustody/internal/domain"
	"datacustody/pkg/platform/sentinel"
	"datacustody/pkg/requestcontext"
)

// Service owns the consent toggle and the gate evaluation. Only the user's
// own explicit action mutates the stored record.
type Service struct {
	store  Store
	cache  GateCache
	policy domain.DNTPolicy
	logger *slog.Logger
}

func NewService(store Store, cache GateCache, policy domain.DNTPolicy, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, policy: policy, logger: logger}
}

// Toggle upserts the user's consent preference. Idempotent: repeating the
// same choice leaves one record with the latest IP and timestamp. The cached
// gate answer is cleared so downstream checks re-evaluate on next request.
func (s *Service) Toggle(ctx context.Context, userID int64, enabled bool) (domain.ConsentRecord, error) {
	rec := domain.ConsentRecord{
		UserID:      userID,
		Enabled:     enabled,
		RequesterIP: requestcontext.ClientIP(ctx),
		CreatedOn:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return domain.ConsentRecord{}, fmt.Errorf("toggle consent: %w", err)
	}
	if err := s.cache.Clear(ctx, userID); err != nil {
		// The TTL caps how long a stale gate answer can live.
		s.logger.WarnContext(ctx, "clearing consent gate cache failed", "user_id", userID, "error", err)
	}
	return rec, nil
}

// Find returns the user's stored preference, or sentinel.ErrNotFound.
func (s *Service) Find(ctx context.Context, userID int64) (domain.ConsentRecord, error) {
	return s.store.FindByUser(ctx, userID)
}

// HasConsented answers the gate question for one request, combining the
// stored preference with the browser's DNT signal under the configured
// policy. Answers are cached per user until the preference changes.
func (s *Service) HasConsented(ctx context.Context, userID int64, dnt bool) (bool, error) {
	// DNT varies per request, so only the DNT-independent policy is safe to
	// answer from cache.
	if s.policy == domain.DNTPolicyIgnore {
		if value, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
			return value, nil
		}
	}

	var stored *bool
	rec, err := s.store.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		stored = nil
	case err != nil:
		return false, fmt.Errorf("consent gate: %w", err)
	default:
		stored = &rec.Enabled
	}

	result := Effective(s.policy, stored, dnt)

	if s.policy == domain.DNTPolicyIgnore {
		if err := s.cache.Set(ctx, userID, result); err != nil {
			s.logger.WarnContext(ctx, "caching consent gate failed", "user_id", userID, "error", err)
		}
	}
	return result, nil
}

// Effective resolves the stored preference against the DNT signal. The
// precedence is an explicit policy table, never inferred:
//
//	policy            stored   dnt    result
//	ignore            nil      any    false
//	ignore            v        any    v
//	dnt-overrides     any      true   false
//	dnt-overrides     nil      false  false
//	dnt-overrides     v        false  v
//	stored-overrides  v        any    v
//	stored-overrides  nil      any    false
func Effective(policy domain.DNTPolicy, stored *bool, dnt bool) bool {
	switch policy {
	case domain.DNTPolicyIgnore:
		return stored != nil && *stored
	case domain.DNTPolicyOverrides:
		if dnt {
			return false
		}
		return stored != nil && *stored
	case domain.DNTPolicyStoredWins:
		if stored != nil {
			return *stored
		}
		return false
	default:
		return false
	}
}
