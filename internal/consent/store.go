// Package consent stores each user's personal-data-processing preference and
// evaluates it against the browser's Do-Not-Track signal.
package consent

import (
	"context"

	"datacustody/internal/domain"
)

// Store persists consent records. One record per user; Upsert never
// duplicates.
type Store interface {
	// Upsert creates the user's record or overwrites the existing one.
	Upsert(ctx context.Context, rec domain.ConsentRecord) error

	// FindByUser returns the user's record, or sentinel.ErrNotFound when the
	// user never made a choice.
	FindByUser(ctx context.Context, userID int64) (domain.ConsentRecord, error)
}
