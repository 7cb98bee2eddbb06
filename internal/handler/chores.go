package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const entityChores = "chores"

type ChoresHandler struct {
	chores *store.ChoreStore
	fx     *Effects
	logger *slog.Logger
}

func NewChoresHandler(cs *store.ChoreStore, fx *Effects, logger *slog.Logger) *ChoresHandler {
	return &ChoresHandler{chores: cs, fx: fx, logger: logger}
}

type choreRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Assignee    string `json:"assignee"`
	Description string `json:"description"`
	Checked     bool   `json:"checked"`
}

func (req *choreRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Assignee = strings.TrimSpace(req.Assignee)
	req.Description = strings.TrimSpace(req.Description)
}

func (h *ChoresHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	chores, err := h.chores.List(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoresHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.trim()
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	chore, err := h.chores.Create(r.Context(), ac.HouseholdID, req.Name, req.Assignee, req.Description)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.fx.mutated(r.Context(), ac, entityChores, "created", chore.ID, chore.Name)
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoresHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req choreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.trim()
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	chore, err := h.chores.Update(r.Context(), ac.HouseholdID, model.Chore{
		ID:          req.ID,
		Name:        req.Name,
		Assignee:    req.Assignee,
		Description: req.Description,
		Checked:     req.Checked,
	})
	if err != nil {
		h.logger.Error("update chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}
	if chore == nil {
		notUpdated(w)
		return
	}

	h.fx.mutated(r.Context(), ac, entityChores, "updated", chore.ID, chore.Name)
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoresHandler) Check(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	chore, err := h.chores.SetChecked(r.Context(), ac.HouseholdID, req.ID, req.Checked)
	if err != nil {
		h.logger.Error("check chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}
	if chore == nil {
		notUpdated(w)
		return
	}

	action := "checked"
	if !req.Checked {
		action = "unchecked"
	}
	h.fx.mutated(r.Context(), ac, entityChores, action, chore.ID, chore.Name)
	writeJSON(w, http.StatusOK, chore)
}

// Delete removes a chore. Deleting marks it done, so the household is
// notified.
func (h *ChoresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	chore, err := h.chores.Delete(r.Context(), ac.HouseholdID, req.ID)
	if err != nil {
		h.logger.Error("delete chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}
	if chore == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	h.fx.mutated(r.Context(), ac, entityChores, "deleted", chore.ID, chore.Name)
	h.fx.completed(r.Context(), ac, model.NotifTypeChores, "Chore completed", chore.Name)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ChoresHandler) Count(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.chores.Count(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("count chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count chores")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
