// Package user provides access to the account records the coordinator acts
// on. The coordinator never owns these rows; it reads them for eligibility
// and notification purposes and pseudonymizes them during erasure.
package user

import (
	"context"
	"time"

	"datacustody/internal/domain"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory or external persistence without rewiring business code.
type Store interface {
	FindByID(ctx context.Context, id int64) (domain.User, error)

	// ListInactiveSince returns non-pseudonymized accounts whose last
	// activity is strictly before the cutoff.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.User, error)

	// Pseudonymize replaces the row's personal fields with opaque
	// placeholders. The row itself stays so foreign keys keep resolving.
	Pseudonymize(ctx context.Context, id int64, now time.Time) error
}
