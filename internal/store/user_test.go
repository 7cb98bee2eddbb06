package store

import (
	"context"
	"testing"
)

func TestUserUpsertCreates(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	u, err := us.Upsert(ctx, "auth0|alice", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.ID != "auth0|alice" {
		t.Errorf("id = %q, want %q", u.ID, "auth0|alice")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
}

func TestUserUpsertKeepsNameWhenBlank(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := us.Upsert(ctx, "u1", "alice@example.com", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	u, err := us.Upsert(ctx, "u1", "alice@new.example.com", "")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.Email != "alice@new.example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@new.example.com")
	}
}

func TestUserGetByEmailCaseInsensitive(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	ctx := context.Background()

	us.Upsert(ctx, "u1", "Alice@Example.com", "Alice")

	u, err := us.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != "u1" {
		t.Fatalf("got %+v, want user u1", u)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	u, err := us.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}
