// Package notification records household notifications and fans them out
// to live websocket clients and web push subscriptions.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
	"github.com/dukerupert/hearth/internal/websocket"
)

const pushTimeout = 30 * time.Second

type Broadcaster interface {
	Broadcast(householdID int64, msg websocket.Message)
}

type Pusher interface {
	Notify(ctx context.Context, householdID int64, payload push.Payload) int
}

type Service struct {
	notifications *store.NotificationStore
	subscriptions *store.PushStore
	hub           Broadcaster
	pusher        Pusher
	logger        *slog.Logger
	wg            sync.WaitGroup
}

// NewService returns a Service. hub and pusher may be nil.
func NewService(notifications *store.NotificationStore, subscriptions *store.PushStore, hub Broadcaster, pusher Pusher, logger *slog.Logger) *Service {
	return &Service{
		notifications: notifications,
		subscriptions: subscriptions,
		hub:           hub,
		pusher:        pusher,
		logger:        logger,
	}
}

// Create stores an unread notification, announces it to the household's
// websocket clients and starts push delivery in the background.
func (s *Service) Create(ctx context.Context, householdID int64, typ, title, body string) (*model.Notification, error) {
	n, err := s.notifications.Create(ctx, householdID, typ, title, body)
	if err != nil {
		return nil, err
	}
	metrics.RecordNotification(typ)

	if s.hub != nil {
		s.hub.Broadcast(householdID, websocket.NewMessage("notifications", "created", n.ID, map[string]any{
			"type":  n.Type,
			"title": n.Title,
			"body":  n.Body,
		}))
	}

	if s.pusher != nil {
		payload := push.Payload{
			Title: title,
			Body:  body,
			URL:   "/" + typ,
			Tag:   typ,
		}
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			s.pusher.Notify(pushCtx, householdID, payload)
		}()
	}
	return n, nil
}

// Emit is Create for callers whose own work already succeeded: failures are
// logged and counted, never returned.
func (s *Service) Emit(ctx context.Context, householdID int64, typ, title, body string) {
	if _, err := s.Create(ctx, householdID, typ, title, body); err != nil {
		metrics.RecordSideEffectFailure("notification")
		s.logger.Error("create notification", "household_id", householdID, "type", typ, "error", err)
	}
}

// Wait blocks until background push deliveries finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) List(ctx context.Context, householdID int64) ([]model.Notification, error) {
	return s.notifications.List(ctx, householdID)
}

func (s *Service) UnreadCount(ctx context.Context, householdID int64) (int, error) {
	return s.notifications.CountUnread(ctx, householdID)
}

// Delete removes one notification of the household. It reports whether it
// existed.
func (s *Service) Delete(ctx context.Context, householdID, id int64) (bool, error) {
	deleted, err := s.notifications.Delete(ctx, householdID, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.broadcast(householdID, "deleted", id)
	return true, nil
}

// Clear deletes every notification of the household.
func (s *Service) Clear(ctx context.Context, householdID int64) (int64, error) {
	n, err := s.notifications.Clear(ctx, householdID)
	if err != nil {
		return 0, err
	}
	s.broadcast(householdID, "cleared", 0)
	return n, nil
}

// MarkRead flags notification id as read, or all of them when id is 0.
func (s *Service) MarkRead(ctx context.Context, householdID, id int64) (int64, error) {
	n, err := s.notifications.MarkRead(ctx, householdID, id)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.broadcast(householdID, "read", id)
	}
	return n, nil
}

func (s *Service) Subscribe(ctx context.Context, householdID int64, userID, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	return s.subscriptions.Subscribe(ctx, householdID, userID, endpoint, p256dh, auth)
}

func (s *Service) Unsubscribe(ctx context.Context, userID, endpoint string) (bool, error) {
	return s.subscriptions.Unsubscribe(ctx, userID, endpoint)
}

func (s *Service) broadcast(householdID int64, action string, id int64) {
	if s.hub != nil {
		s.hub.Broadcast(householdID, websocket.NewMessage("notifications", action, id, nil))
	}
}
