package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const entityMaintenance = "maintenance"

type MaintenanceHandler struct {
	items  *store.MaintenanceStore
	fx     *Effects
	logger *slog.Logger
}

func NewMaintenanceHandler(ms *store.MaintenanceStore, fx *Effects, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{items: ms, fx: fx, logger: logger}
}

type maintenanceRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Checked     bool   `json:"checked"`
}

func (req *maintenanceRequest) trim() {
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Description = strings.TrimSpace(req.Description)
}

func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	items, err := h.items.List(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("list maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list maintenance items")
		return
	}
	if items == nil {
		items = []model.MaintenanceItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req maintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.trim()
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	item, err := h.items.Create(r.Context(), ac.HouseholdID, req.Title, req.Category, req.Description)
	if err != nil {
		h.logger.Error("create maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create maintenance item")
		return
	}

	h.fx.mutated(r.Context(), ac, entityMaintenance, "created", item.ID, item.Title)
	writeJSON(w, http.StatusCreated, item)
}

func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req maintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.trim()
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	item, err := h.items.Update(r.Context(), ac.HouseholdID, model.MaintenanceItem{
		ID:          req.ID,
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Checked:     req.Checked,
	})
	if err != nil {
		h.logger.Error("update maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update maintenance item")
		return
	}
	if item == nil {
		notUpdated(w)
		return
	}

	h.fx.mutated(r.Context(), ac, entityMaintenance, "updated", item.ID, item.Title)
	writeJSON(w, http.StatusOK, item)
}

func (h *MaintenanceHandler) Check(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.items.SetChecked(r.Context(), ac.HouseholdID, req.ID, req.Checked)
	if err != nil {
		h.logger.Error("check maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update maintenance item")
		return
	}
	if item == nil {
		notUpdated(w)
		return
	}

	action := "checked"
	if !req.Checked {
		action = "unchecked"
	}
	h.fx.mutated(r.Context(), ac, entityMaintenance, action, item.ID, item.Title)
	writeJSON(w, http.StatusOK, item)
}

func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.items.Delete(r.Context(), ac.HouseholdID, req.ID)
	if err != nil {
		h.logger.Error("delete maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete maintenance item")
		return
	}
	if item == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	h.fx.mutated(r.Context(), ac, entityMaintenance, "deleted", item.ID, item.Title)
	h.fx.completed(r.Context(), ac, model.NotifTypeMaintenance, "Maintenance done", item.Title)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *MaintenanceHandler) Count(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.items.Count(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("count maintenance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count maintenance items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
