package wipe

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"datacustody/internal/domain"
)

// AuditRecord is the immutable account of one erasure run. It is created
// exactly once at the end of a successful run, never mutated, and read-only
// thereafter. Items maps domain name to that domain's deletion report;
// domains that had nothing to delete, or that failed, are absent.
type AuditRecord struct {
	ID          uuid.UUID                        `json:"id"`
	UserID      int64                            `json:"user_id"`
	CreatedBy   int64                            `json:"created_by"`
	CreatedOn   time.Time                        `json:"created_on"`
	RequesterIP string                           `json:"requester_ip"`
	Type        domain.WipeType                  `json:"type"`
	Items       map[string]domain.DeletionReport `json:"items"`
}

// canonicalPayload is the record minus its storage-assigned ID, used for
// content-addressed mirroring. encoding/json sorts map keys, so identical
// content always yields identical bytes.
type canonicalPayload struct {
	UserID      int64                            `json:"user_id"`
	CreatedBy   int64                            `json:"created_by"`
	CreatedOn   string                           `json:"created_on"`
	RequesterIP string                           `json:"requester_ip"`
	Type        domain.WipeType                  `json:"type"`
	Items       map[string]domain.DeletionReport `json:"items"`
}

// CanonicalJSON marshals the record's content, excluding the storage-assigned
// ID. Two records describing the same erasure produce byte-identical output,
// which makes the mirror's content-derived object keys idempotent.
func (r *AuditRecord) CanonicalJSON() ([]byte, error) {
	payload := canonicalPayload{
		UserID:      r.UserID,
		CreatedBy:   r.CreatedBy,
		CreatedOn:   r.CreatedOn.UTC().Format(time.RFC3339),
		RequesterIP: r.RequesterIP,
		Type:        r.Type,
		Items:       r.Items,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return data, nil
}

// State names the orchestrator's positions. Transitions are logged so a
// partial run can be reconstructed from the log stream.
type State string

const (
	StateRequested             State = "requested"
	StateBulletpointsPreviewed State = "bulletpoints_previewed"
	StateConfirmed             State = "confirmed"
	StateDomainsProcessing     State = "domains_processing"
	StateAuditRecorded         State = "audit_recorded"
	StateNotificationsSent     State = "notifications_sent"
)
