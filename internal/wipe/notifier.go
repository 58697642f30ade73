package wipe

import (
	"context"
	"log/slog"

	"datacustody/internal/domain"
	"datacustody/internal/platform/metrics"
)

// SavedEvent is fired once per successful audit record write. It carries the
// pre-deletion user snapshot and the bulletpoint list so sinks can render
// notifications without re-reading data the erasure just removed.
type SavedEvent struct {
	Record       *AuditRecord
	User         domain.User
	Bulletpoints []string

	// Replaying marks a re-application of an already-externally-notified
	// record (e.g. replaying history during a restore). Sinks with
	// externally visible effects must no-op when set.
	Replaying bool
}

// Sink receives the record-saved event. Implementations are side effects:
// email dispatch, off-site mirroring, event streaming.
type Sink interface {
	Name() string
	RecordSaved(ctx context.Context, ev SavedEvent) error
}

// Notifier fans the record-saved event out to all registered sinks. Each
// sink is isolated: a failure is logged and counted, never propagated - the
// erasure already happened and the persisted record is the source of truth.
type Notifier struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewNotifier(logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks, logger: logger, metrics: m}
}

func (n *Notifier) RecordSaved(ctx context.Context, ev SavedEvent) {
	for _, sink := range n.sinks {
		if err := sink.RecordSaved(ctx, ev); err != nil {
			n.logger.ErrorContext(ctx, "notification sink failed",
				"sink", sink.Name(),
				"audit_id", ev.Record.ID,
				"user_id", ev.Record.UserID,
				"error", err,
			)
			if n.metrics != nil {
				n.metrics.IncNotificationFailure(sink.Name())
			}
		}
	}
}
