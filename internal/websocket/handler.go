package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/hearth/internal/auth"
)

// Handler upgrades authenticated requests to WebSocket connections that
// receive their household's updates.
type Handler struct {
	hub            *Hub
	originPatterns []string
	logger         *slog.Logger
}

// NewHandler returns a Handler. originPatterns lists the hosts allowed to
// connect cross-origin; same-origin requests are always accepted.
func NewHandler(hub *Hub, originPatterns []string, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if householdID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, householdID)
	client.Run(r.Context())
}
