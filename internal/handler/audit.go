package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/hearth/internal/audit"
)

type AuditHandler struct {
	service *audit.Service
	logger  *slog.Logger
}

func NewAuditHandler(svc *audit.Service, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{service: svc, logger: logger}
}

// List returns one page of the household's log. A missing or malformed page
// means the first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := h.service.Query(r.Context(), ac.HouseholdID, audit.Query{
		Page:   page,
		User:   q.Get("user"),
		Action: q.Get("action"),
	})
	if err != nil {
		writeServiceError(w, h.logger, "failed to query audit log", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type auditRequest struct {
	Action   string `json:"action"`
	ItemType string `json:"itemType"`
	ItemName string `json:"itemName"`
}

// Create records a client-reported action under the caller's name.
func (h *AuditHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req auditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entry, err := h.service.Append(r.Context(), ac.HouseholdID, audit.Entry{
		UserID:   ac.UserID,
		UserName: ac.DisplayName(),
		Action:   req.Action,
		ItemType: strings.TrimSpace(req.ItemType),
		ItemName: strings.TrimSpace(req.ItemName),
	})
	if err != nil {
		writeServiceError(w, h.logger, "failed to append audit log", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
