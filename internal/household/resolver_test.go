package household

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/model"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h1, m1, err := f.resolver.GetOrCreate(ctx, alice)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	h2, m2, err := f.resolver.GetOrCreate(ctx, alice)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if h1.ID != h2.ID {
		t.Errorf("household ids = %d, %d, want equal", h1.ID, h2.ID)
	}
	if m1.ID != m2.ID {
		t.Errorf("member ids = %d, %d, want equal", m1.ID, m2.ID)
	}
	if n := f.countHouseholds(t); n != 1 {
		t.Errorf("households = %d, want 1", n)
	}
	if h1.Name != "alice" {
		t.Errorf("name = %q, want %q", h1.Name, "alice")
	}
	if m1.Role != model.RoleOwner || m1.Status != model.StatusAccepted {
		t.Errorf("member = %+v, want accepted owner", m1)
	}
}

func TestGetOrCreateAcceptsPendingInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := f.join(t, alice)
	invite, err := f.households.AddInvite(ctx, owner.HouseholdID, "bob@example.com", model.RoleMember)
	if err != nil {
		t.Fatalf("add invite: %v", err)
	}

	h, m, err := f.resolver.GetOrCreate(ctx, identity.Identity{UserID: bob.UserID, Email: "Bob@Example.com"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if h.ID != owner.HouseholdID {
		t.Errorf("household = %d, want %d", h.ID, owner.HouseholdID)
	}
	if m.ID != invite.ID {
		t.Errorf("member = %d, want invite %d", m.ID, invite.ID)
	}
	if m.Status != model.StatusAccepted || m.UserID == nil || *m.UserID != bob.UserID {
		t.Errorf("member = %+v, want accepted by bob", m)
	}

	again, _, err := f.resolver.GetOrCreate(ctx, bob)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.ID != owner.HouseholdID {
		t.Errorf("second resolve household = %d, want %d", again.ID, owner.HouseholdID)
	}
	if n := f.countHouseholds(t); n != 1 {
		t.Errorf("households = %d, want 1", n)
	}
}

func TestGetOrCreateRequiresIdentity(t *testing.T) {
	f := newFixture(t)

	tests := []identity.Identity{
		{Email: "x@example.com"},
		{UserID: "x"},
		{},
	}
	for _, id := range tests {
		_, _, err := f.resolver.GetOrCreate(context.Background(), id)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("GetOrCreate(%+v) err = %v, want ErrUnauthorized", id, err)
		}
	}
	if n := f.countHouseholds(t); n != 0 {
		t.Errorf("households = %d, want 0", n)
	}
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice"},
		{"first.last@example.com", "first.last"},
		{"@example.com", "Household"},
		{"noat", "noat"},
	}
	for _, tt := range tests {
		if got := nameFromEmail(tt.email); got != tt.want {
			t.Errorf("nameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
