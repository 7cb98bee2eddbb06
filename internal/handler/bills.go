package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

const entityBills = "bills"

type BillsHandler struct {
	bills  *store.BillStore
	fx     *Effects
	now    func() time.Time
	logger *slog.Logger
}

func NewBillsHandler(bs *store.BillStore, fx *Effects, logger *slog.Logger) *BillsHandler {
	return &BillsHandler{bills: bs, fx: fx, now: time.Now, logger: logger}
}

type billRequest struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Amount   *float64 `json:"amount"`
	DueDate  string   `json:"dueDate"`
	Category string   `json:"category"`
	Checked  bool     `json:"checked"`
}

// validate trims the request and returns a message for the first missing
// or malformed field.
func (req *billRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.DueDate = strings.TrimSpace(req.DueDate)
	req.Category = strings.TrimSpace(req.Category)
	switch {
	case req.Name == "":
		return "name is required"
	case req.Amount == nil:
		return "amount is required"
	case *req.Amount < 0:
		return "amount must not be negative"
	case req.DueDate == "":
		return "dueDate is required"
	}
	if _, err := time.Parse(store.DateLayout, req.DueDate); err != nil {
		return "dueDate must be YYYY-MM-DD"
	}
	return ""
}

func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	bills, err := h.bills.List(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("list bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bills")
		return
	}
	if bills == nil {
		bills = []model.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	bill, err := h.bills.Create(r.Context(), ac.HouseholdID, req.Name, *req.Amount, req.DueDate, req.Category, req.Checked)
	if err != nil {
		h.logger.Error("create bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create bill")
		return
	}

	h.fx.mutated(r.Context(), ac, entityBills, "created", bill.ID, bill.Name)
	writeJSON(w, http.StatusCreated, bill)
}

func (h *BillsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	bill, err := h.bills.Update(r.Context(), ac.HouseholdID, model.Bill{
		ID:       req.ID,
		Name:     req.Name,
		Amount:   *req.Amount,
		DueDate:  req.DueDate,
		Category: req.Category,
		Checked:  req.Checked,
	})
	if err != nil {
		h.logger.Error("update bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update bill")
		return
	}
	if bill == nil {
		notUpdated(w)
		return
	}

	h.fx.mutated(r.Context(), ac, entityBills, "updated", bill.ID, bill.Name)
	writeJSON(w, http.StatusOK, bill)
}

func (h *BillsHandler) Check(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	bill, err := h.bills.SetChecked(r.Context(), ac.HouseholdID, req.ID, req.Checked)
	if err != nil {
		h.logger.Error("check bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update bill")
		return
	}
	if bill == nil {
		notUpdated(w)
		return
	}

	action := "checked"
	if !req.Checked {
		action = "unchecked"
	}
	h.fx.mutated(r.Context(), ac, entityBills, action, bill.ID, bill.Name)
	writeJSON(w, http.StatusOK, bill)
}

func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	bill, err := h.bills.Delete(r.Context(), ac.HouseholdID, req.ID)
	if err != nil {
		h.logger.Error("delete bill", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete bill")
		return
	}
	if bill == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": false})
		return
	}

	h.fx.mutated(r.Context(), ac, entityBills, "deleted", bill.ID, bill.Name)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *BillsHandler) Count(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.bills.Count(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("count bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count bills")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// Monthly reports totals for the five months around the current one.
func (h *BillsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	totals, err := h.bills.MonthlyTotals(r.Context(), ac.HouseholdID, h.now())
	if err != nil {
		h.logger.Error("monthly bill totals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to total bills")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
