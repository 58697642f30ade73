// Package httptransport is the thin HTTP layer. It delegates to the domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"datacustody/internal/wipe"
	"datacustody/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, wipe.ErrConfirmationMismatch):
		status, code, message = http.StatusBadRequest, "confirmation_mismatch", "confirmation phrase does not match"
	case errors.Is(err, wipe.ErrWipeInProgress):
		status, code, message = http.StatusConflict, "wipe_in_progress", "an erasure for this user is already running"
	case errors.Is(err, wipe.ErrNotEligible):
		status, code, message = http.StatusConflict, "not_eligible", "user is not eligible for lifecycle deletion"
	case errors.Is(err, sentinel.ErrInvalidState):
		status, code, message = http.StatusBadRequest, "invalid_request", "invalid request"
	}

	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":             "bad_request",
		"error_description": message,
	})
}
