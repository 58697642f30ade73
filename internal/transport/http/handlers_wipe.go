package httptransport

import (
	"encoding/json"
	"net/http"

	"datacustody/internal/domain"
	"datacustody/internal/wipe"
	"datacustody/pkg/requestcontext"
)

// handleWipePreview returns the bulletpoint lines describing what an erasure
// of this user would remove, without changing anything.
func (h *Handler) handleWipePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	wipeType, err := wipeTypeFromRequest(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	lines, err := h.wipes.Preview(ctx, userID, wipeType)
	if err != nil {
		h.logger.ErrorContext(ctx, "wipe preview failed",
			"user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      userID,
		"type":         wipeType,
		"bulletpoints": lines,
	})
}

type wipeRequest struct {
	Type          string `json:"type"`
	ConfirmPhrase string `json:"confirm_phrase"`
}

// handleWipeExecute runs the erasure. Self-service requests must carry the
// confirmation phrase; admin requests must carry the admin role.
func (h *Handler) handleWipeExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	var body wipeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	wipeType, err := domain.ParseWipeType(body.Type)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if wipeType == domain.WipeTypeLifecycle {
		// Lifecycle wipes run from the batch worker, never over HTTP.
		badRequest(w, "lifecycle wipes cannot be requested over the API")
		return
	}
	if wipeType == domain.WipeTypeAdmin && !requestcontext.IsAdmin(ctx) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":             "forbidden",
			"error_description": "admin wipe requires the admin role",
		})
		return
	}

	rec, err := h.wipes.Execute(ctx, wipe.Request{
		UserID:        userID,
		Type:          wipeType,
		ConfirmPhrase: body.ConfirmPhrase,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "wipe execution failed",
			"user_id", userID,
			"type", wipeType,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleListAudits returns the user's erasure audit records, newest first.
func (h *Handler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := subjectUserID(r)
	if err != nil {
		badRequest(w, "invalid user identifier")
		return
	}

	records, err := h.wipes.ListAudits(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing wipe audits failed",
			"user_id", userID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*wipe.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func wipeTypeFromRequest(r *http.Request) (domain.WipeType, error) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		raw = domain.WipeTypeUser.String()
	}
	return domain.ParseWipeType(raw)
}
