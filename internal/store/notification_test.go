package store

import (
	"context"
	"testing"
)

func TestNotificationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ns := NewNotificationStore(db)
	ctx := context.Background()
	h := newHousehold(t, db, "home", "u1")
	other := newHousehold(t, db, "other", "u2")

	first, err := ns.Create(ctx, h.ID, "chores", "Chore completed", "Take out trash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Read {
		t.Error("expected new notification unread")
	}
	second, _ := ns.Create(ctx, h.ID, "shopping", "Item bought", "Milk")
	ns.Create(ctx, other.ID, "chores", "Chore completed", "Elsewhere")

	list, err := ns.List(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("first listed = %d, want newest %d", list[0].ID, second.ID)
	}

	n, err := ns.MarkRead(ctx, h.ID, first.ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n != 1 {
		t.Errorf("marked = %d, want 1", n)
	}
	unread, _ := ns.CountUnread(ctx, h.ID)
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}

	n, _ = ns.MarkRead(ctx, h.ID, 0)
	if n != 1 {
		t.Errorf("marked all = %d, want 1", n)
	}

	deleted, err := ns.Delete(ctx, other.ID, first.ID)
	if err != nil {
		t.Fatalf("delete other household: %v", err)
	}
	if deleted {
		t.Error("expected delete scoped to household")
	}

	cleared, err := ns.Clear(ctx, h.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d, want 2", cleared)
	}
	left, _ := ns.List(ctx, other.ID)
	if len(left) != 1 {
		t.Errorf("other household notifications = %d, want 1", len(left))
	}
}
