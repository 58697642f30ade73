package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"datacustody/pkg/platform/sentinel"
	"datacustody/pkg/requestcontext"
)

type toggleConsentRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleToggleConsent upserts the user's consent preference. Repeating the
// same choice is idempotent and refreshes the record's IP and timestamp.
func (h *Handler) handleToggleConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	var body toggleConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		badRequest(w, "body must carry an explicit enabled flag")
		return
	}

	rec, err := h.consents.Toggle(ctx, userID, *body.Enabled)
	if err != nil {
		h.logger.ErrorContext(ctx, "consent toggle failed",
			"user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    rec.UserID,
		"enabled":    rec.Enabled,
		"created_on": rec.CreatedOn,
	})
}

// handleGetConsent returns the stored preference together with the effective
// gate answer for this request's DNT signal.
func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	dnt := r.Header.Get("DNT") == "1"
	effective, err := h.consents.HasConsented(ctx, userID, dnt)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"user_id":   userID,
		"effective": effective,
		"dnt":       dnt,
	}
	rec, err := h.consents.Find(ctx, userID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		resp["stored"] = nil
	case err != nil:
		writeError(w, err)
		return
	default:
		resp["stored"] = rec.Enabled
	}

	writeJSON(w, http.StatusOK, resp)
}
