package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/shopping"
	"github.com/dukerupert/hearth/internal/store"
)

const entityShopping = "shopping"

type ShoppingHandler struct {
	items  *store.ShoppingStore
	fx     *Effects
	logger *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, fx *Effects, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{items: ss, fx: fx, logger: logger}
}

type shoppingRequest struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Checked    bool    `json:"checked"`
	OrderedIDs []int64 `json:"orderedIds"`
}

func (req *shoppingRequest) trim() {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	items, err := h.items.List(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("list shopping", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping items")
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create adds an item to the end of the list. A body carrying orderedIds is
// a reorder instead.
func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req shoppingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.OrderedIDs != nil {
		h.reorder(w, r, ac, req.OrderedIDs)
		return
	}
	req.trim()
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == "" {
		req.Category = shopping.Categorize(req.Name)
	}

	item, err := h.items.Create(r.Context(), ac.HouseholdID, req.Name, req.Category)
	if err != nil {
		h.logger.Error("create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping item")
		return
	}

	h.fx.mutated(r.Context(), ac, entityShopping, "created", item.ID, item.Name)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req shoppingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.OrderedIDs == nil {
		writeError(w, http.StatusBadRequest, "orderedIds is required")
		return
	}
	h.reorder(w, r, ac, req.OrderedIDs)
}

func (h *ShoppingHandler) reorder(w http.ResponseWriter, r *http.Request, ac auth.AuthContext, ids []int64) {
	moved, err := h.items.Reorder(r.Context(), ac.HouseholdID, ids)
	if err != nil {
		h.logger.Error("reorder shopping", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder shopping items")
		return
	}
	h.fx.mutated(r.Context(), ac, entityShopping, "reordered", 0, "")
	writeJSON(w, http.StatusOK, map[string]int{"reordered": moved})
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req shoppingRequest
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
	if req.Category == "" {
		req.Category = shopping.Categorize(req.Name)
	}

	item, err := h.items.Update(r.Context(), ac.HouseholdID, model.ShoppingItem{
		ID:       req.ID,
		Name:     req.Name,
		Category: req.Category,
		Checked:  req.Checked,
	})
	if err != nil {
		h.logger.Error("update shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping item")
		return
	}
	if item == nil {
		notUpdated(w)
		return
	}

	h.fx.mutated(r.Context(), ac, entityShopping, "updated", item.ID, item.Name)
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Check(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("check shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping item")
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
	h.fx.mutated(r.Context(), ac, entityShopping, action, item.ID, item.Name)
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("delete shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shopping item")
		return
	}
	if item == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	h.fx.mutated(r.Context(), ac, entityShopping, "deleted", item.ID, item.Name)
	h.fx.completed(r.Context(), ac, model.NotifTypeShopping, "Item picked up", item.Name)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ShoppingHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.items.ClearChecked(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("clear checked shopping", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear shopping items")
		return
	}
	if n > 0 {
		h.fx.mutated(r.Context(), ac, entityShopping, "cleared", 0, "")
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

func (h *ShoppingHandler) Count(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.items.Count(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("count shopping", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count shopping items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}
