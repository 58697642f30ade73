package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"datacustody/pkg/platform/middleware/auth"
	"datacustody/pkg/platform/middleware/metadata"
)

// NewRouter wires all endpoints. Every route under /users requires a valid
// bearer token and restricts access to the addressed user or an admin.
func NewRouter(h *Handler, validator *auth.Validator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(metadata.RequestTime)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, logger))
		r.Use(auth.RequireSelfOrAdmin(subjectUserID, logger))

		r.Get("/export", h.handleExport)
		r.Get("/wipe/preview", h.handleWipePreview)
		r.Post("/wipe", h.handleWipeExecute)
		r.Get("/audits", h.handleListAudits)
		r.Get("/consent", h.handleGetConsent)
		r.Put("/consent", h.handleToggleConsent)
	})

	return r
}

// subjectUserID extracts the addressed user from the route.
func subjectUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}
