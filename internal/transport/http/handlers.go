package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"datacustody/internal/dispatch"
	"datacustody/internal/domain"
	"datacustody/internal/export"
	"datacustody/internal/platform/metrics"
	"datacustody/internal/wipe"
	"datacustody/pkg/requestcontext"
)

// WipeService defines the erasure operations the transport needs.
type WipeService interface {
	Preview(ctx context.Context, userID int64, wipeType domain.WipeType) ([]string, error)
	Execute(ctx context.Context, req wipe.Request) (*wipe.AuditRecord, error)
	ListAudits(ctx context.Context, userID int64) ([]*wipe.AuditRecord, error)
}

// ConsentService defines the consent operations the transport needs.
type ConsentService interface {
	Toggle(ctx context.Context, userID int64, enabled bool) (domain.ConsentRecord, error)
	Find(ctx context.Context, userID int64) (domain.ConsentRecord, error)
	HasConsented(ctx context.Context, userID int64, dnt bool) (bool, error)
}

// Exporter assembles the full data export for one user. Satisfied by the
// dispatcher.
type Exporter interface {
	ExportAll(ctx context.Context, userID int64) (*export.Document, []dispatch.Failure)
}

// Handler serves the coordinator's HTTP API.
type Handler struct {
	wipes      WipeService
	consents   ConsentService
	exporter   Exporter
	serializer *export.Serializer
	health     []HealthCheck
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// HealthCheck is one named readiness probe of a backing dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewHandler builds the HTTP handler set.
func NewHandler(
	wipes WipeService,
	consents ConsentService,
	exporter Exporter,
	serializer *export.Serializer,
	logger *slog.Logger,
	m *metrics.Metrics,
	health ...HealthCheck,
) *Handler {
	return &Handler{
		wipes:      wipes,
		consents:   consents,
		exporter:   exporter,
		serializer: serializer,
		health:     health,
		logger:     logger,
		metrics:    m,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for _, hc := range h.health {
		if err := hc.Check(ctx); err != nil {
			checks[hc.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}
	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

// handleExport streams the user's full data export as XML. Per-domain
// failures surface in a response header rather than aborting the export.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	doc, failures := h.exporter.ExportAll(ctx, userID)
	for _, f := range failures {
		h.logger.WarnContext(ctx, "export failed for domain",
			"domain", f.Domain,
			"user_id", userID,
			"error", f.Err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	if h.metrics != nil {
		h.metrics.IncExport()
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export.xml"`)
	if len(failures) > 0 {
		w.Header().Set("X-Export-Incomplete", "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.serializer.Serialize(doc))
}
