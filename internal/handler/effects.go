package handler

import (
	"context"
	"log/slog"

	"github.com/dukerupert/hearth/internal/audit"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/websocket"
)

type Broadcaster interface {
	Broadcast(householdID int64, msg websocket.Message)
}

// Notifier records completion notifications without failing the caller.
type Notifier interface {
	Emit(ctx context.Context, householdID int64, typ, title, body string)
}

// Effects carries out the secondary work of an item mutation: the live
// update, the audit entry and, for completions, a notification. None of it
// can fail the request.
type Effects struct {
	audit    *audit.Service
	notifier Notifier
	hub      Broadcaster
	logger   *slog.Logger
}

// NewEffects returns Effects; notifier and hub may be nil.
func NewEffects(auditSvc *audit.Service, notifier Notifier, hub Broadcaster, logger *slog.Logger) *Effects {
	return &Effects{audit: auditSvc, notifier: notifier, hub: hub, logger: logger}
}

func (e *Effects) mutated(ctx context.Context, ac auth.AuthContext, entity, action string, id int64, name string) {
	if e.hub != nil {
		e.hub.Broadcast(ac.HouseholdID, websocket.NewMessage(entity, action, id, map[string]any{
			"name": name,
			"by":   ac.DisplayName(),
		}))
	}
	if e.audit != nil {
		e.audit.Record(ctx, ac.HouseholdID, audit.Entry{
			UserID:   ac.UserID,
			UserName: ac.DisplayName(),
			Action:   action,
			ItemType: entity,
			ItemName: name,
		})
	}
}

func (e *Effects) completed(ctx context.Context, ac auth.AuthContext, typ, title, body string) {
	if e.notifier != nil {
		e.notifier.Emit(ctx, ac.HouseholdID, typ, title, body)
	}
}
