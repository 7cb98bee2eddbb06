package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/audit"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends msg as a plain-text body.
func writeError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// authContext returns the caller resolved by the auth middleware, answering
// 401 itself when there is none.
func authContext(w http.ResponseWriter, r *http.Request) (auth.AuthContext, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok || ac.HouseholdID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.AuthContext{}, false
	}
	return ac, true
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and reported as a generic 500 carrying msg.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	var ve *household.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, audit.ErrActionRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, household.ErrUnauthorized), errors.Is(err, household.ErrForbidden):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, household.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

type idRequest struct {
	ID int64 `json:"id"`
}

type checkRequest struct {
	ID      int64 `json:"id"`
	Checked bool  `json:"checked"`
}

func notUpdated(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"updated": false})
}
