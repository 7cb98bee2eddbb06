package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/websocket"
)

const entityMembers = "members"

// Member request kinds accepted by POST /household/members.
const (
	kindInvite     = "invite"
	kindChangeRole = "change_role"
	kindRemove     = "remove"
	kindRemoveSelf = "remove_self"
)

type HouseholdHandler struct {
	service *household.Service
	hub     Broadcaster
	logger  *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, hub Broadcaster, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{service: svc, hub: hub, logger: logger}
}

type memberRequest struct {
	Kind     string     `json:"kind"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
	MemberID int64      `json:"memberId"`
}

type inviteRequest struct {
	InviteID int64 `json:"inviteId"`
}

func callerIdentity(ac auth.AuthContext) identity.Identity {
	return identity.Identity{UserID: ac.UserID, Email: ac.Email, Name: ac.Name}
}

func (h *HouseholdHandler) broadcast(householdID int64, action string, id int64) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, websocket.NewMessage(entityMembers, action, id, nil))
	}
}

// Init returns the caller's household and membership, creating them on
// first sight.
func (h *HouseholdHandler) Init(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	hh, m, err := h.service.Current(r.Context(), ac)
	if err != nil {
		writeServiceError(w, h.logger, "failed to load household", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"household": hh, "member": m})
}

func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), ac.HouseholdID)
	if err != nil {
		writeServiceError(w, h.logger, "failed to list members", err)
		return
	}
	if members == nil {
		members = []model.MemberProfile{}
	}
	writeJSON(w, http.StatusOK, members)
}

// UpdateMembers dispatches on the request kind.
func (h *HouseholdHandler) UpdateMembers(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	switch req.Kind {
	case kindInvite:
		m, err := h.service.Invite(r.Context(), ac, req.Email, req.Role)
		if err != nil {
			writeServiceError(w, h.logger, "failed to invite member", err)
			return
		}
		h.broadcast(ac.HouseholdID, "invited", m.ID)
		writeJSON(w, http.StatusCreated, m)

	case kindChangeRole:
		if req.MemberID <= 0 {
			writeError(w, http.StatusBadRequest, "memberId is required")
			return
		}
		m, err := h.service.ChangeRole(r.Context(), ac, req.MemberID, req.Role)
		if err != nil {
			writeServiceError(w, h.logger, "failed to change role", err)
			return
		}
		h.broadcast(ac.HouseholdID, "updated", m.ID)
		writeJSON(w, http.StatusOK, m)

	case kindRemove:
		if req.MemberID <= 0 {
			writeError(w, http.StatusBadRequest, "memberId is required")
			return
		}
		if err := h.service.Remove(r.Context(), ac, req.MemberID); err != nil {
			writeServiceError(w, h.logger, "failed to remove member", err)
			return
		}
		h.broadcast(ac.HouseholdID, "removed", req.MemberID)
		w.WriteHeader(http.StatusNoContent)

	case kindRemoveSelf:
		if err := h.service.RemoveSelf(r.Context(), ac); err != nil {
			writeServiceError(w, h.logger, "failed to leave household", err)
			return
		}
		h.broadcast(ac.HouseholdID, "removed", ac.MemberID)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusBadRequest, "unknown kind")
	}
}

func (h *HouseholdHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil || req.InviteID <= 0 {
		writeError(w, http.StatusBadRequest, "inviteId is required")
		return
	}

	hh, err := h.service.Accept(r.Context(), callerIdentity(ac), req.InviteID)
	if err != nil {
		writeServiceError(w, h.logger, "failed to accept invite", err)
		return
	}
	h.broadcast(ac.HouseholdID, "removed", ac.MemberID)
	h.broadcast(hh.ID, "joined", req.InviteID)
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) Decline(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil || req.InviteID <= 0 {
		writeError(w, http.StatusBadRequest, "inviteId is required")
		return
	}

	if err := h.service.Decline(r.Context(), callerIdentity(ac), req.InviteID); err != nil {
		writeServiceError(w, h.logger, "failed to decline invite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InviteStatus lists the invites waiting for the caller's email.
func (h *HouseholdHandler) InviteStatus(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	invites, err := h.service.PendingInvites(r.Context(), ac.Email)
	if err != nil {
		writeServiceError(w, h.logger, "failed to list invites", err)
		return
	}
	if invites == nil {
		invites = []model.Invite{}
	}
	writeJSON(w, http.StatusOK, invites)
}
