package wipe

import "context"

// Store persists erasure audit records. Append-only: no update or delete is
// exposed, the record is the durable trace of an irreversible action.
type Store interface {
	// Record persists the audit record, assigning its ID.
	Record(ctx context.Context, rec *AuditRecord) error

	// ListByUser returns a user's audit records, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*AuditRecord, error)
}
