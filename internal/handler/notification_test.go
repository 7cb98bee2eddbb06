package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notification"
	"github.com/dukerupert/hearth/internal/store"
)

func newNotificationHandler(t *testing.T, f *fixture) (*NotificationHandler, *notification.Service) {
	t.Helper()
	svc := notification.NewService(store.NewNotificationStore(f.db), store.NewPushStore(f.db), f.hub, nil, slog.Default())
	return NewNotificationHandler(svc, "", slog.Default()), svc
}

func TestNotificationReadAndClear(t *testing.T) {
	f := newFixture(t)
	h, svc := newNotificationHandler(t, f)
	ctx := context.Background()

	first, _ := svc.Create(ctx, f.ac.HouseholdID, model.NotifTypeChores, "Chore completed", "Dishes")
	svc.Create(ctx, f.ac.HouseholdID, model.NotifTypeShopping, "Item picked up", "Eggs")

	rec := f.call(t, h.MarkRead, "POST", map[string]int64{"id": first.ID})
	assertStatus(t, rec, http.StatusOK)
	if got := decode[map[string]int64](t, rec); got["updated"] != 1 {
		t.Errorf("updated = %d, want 1", got["updated"])
	}

	unread := decode[map[string]int](t, f.call(t, h.UnreadCount, "GET", nil))
	if unread["count"] != 1 {
		t.Errorf("unread = %d, want 1", unread["count"])
	}

	// An empty body marks everything read.
	rec = f.call(t, h.MarkRead, "POST", nil)
	if got := decode[map[string]int64](t, rec); got["updated"] != 1 {
		t.Errorf("updated = %d, want 1", got["updated"])
	}

	rec = f.call(t, h.Clear, "POST", nil)
	if got := decode[map[string]int64](t, rec); got["cleared"] != 2 {
		t.Errorf("cleared = %d, want 2", got["cleared"])
	}
	list := decode[[]model.Notification](t, f.call(t, h.List, "GET", nil))
	if len(list) != 0 {
		t.Errorf("notifications = %d, want 0", len(list))
	}
}

func TestNotificationDelete(t *testing.T) {
	f := newFixture(t)
	h, svc := newNotificationHandler(t, f)

	n, _ := svc.Create(context.Background(), f.ac.HouseholdID, model.NotifTypeChores, "Chore completed", "Dishes")

	rec := f.call(t, h.Delete, "POST", map[string]int64{"id": n.ID})
	assertStatus(t, rec, http.StatusOK)
	if got := decode[map[string]bool](t, rec); !got["deleted"] {
		t.Errorf("first delete = %v, want deleted", got)
	}

	// A missing notification is a no-op, like item deletes.
	rec = f.call(t, h.Delete, "POST", map[string]int64{"id": n.ID})
	assertStatus(t, rec, http.StatusOK)
	if got := decode[map[string]bool](t, rec); got["deleted"] {
		t.Errorf("second delete = %v, want not deleted", got)
	}
}

func TestNotificationSubscribe(t *testing.T) {
	f := newFixture(t)
	h, _ := newNotificationHandler(t, f)

	body := map[string]any{
		"endpoint": "https://push.example.com/abc",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	}
	rec := f.call(t, h.Subscribe, "POST", body)
	assertStatus(t, rec, http.StatusCreated)
	if got := decode[model.PushSubscription](t, rec); got.UserID != "alice" || got.P256dhKey != "key" {
		t.Errorf("subscription = %+v", got)
	}

	assertStatus(t, f.call(t, h.Subscribe, "POST", map[string]string{"endpoint": "x"}), http.StatusBadRequest)
	assertStatus(t, f.call(t, h.Unsubscribe, "POST", map[string]string{"endpoint": "https://push.example.com/abc"}), http.StatusNoContent)
}

func TestNotificationVAPIDKey(t *testing.T) {
	f := newFixture(t)
	h, _ := newNotificationHandler(t, f)
	assertStatus(t, f.call(t, h.VAPIDKey, "GET", nil), http.StatusNotFound)

	h.vapidKey = "public"
	rec := f.call(t, h.VAPIDKey, "GET", nil)
	if got := decode[map[string]string](t, rec); got["publicKey"] != "public" {
		t.Errorf("key = %q", got["publicKey"])
	}
}
