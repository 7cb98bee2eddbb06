package household

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeDirectory struct {
	profiles map[string]identity.Profile
	err      error
}

func (d *fakeDirectory) Profile(_ context.Context, userID string) (identity.Profile, error) {
	if d.err != nil {
		return identity.Profile{}, d.err
	}
	return d.profiles[userID], nil
}

type sentInvite struct {
	to, household, inviter string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentInvite
	err  error
}

func (m *fakeMailer) Configured() bool { return true }

func (m *fakeMailer) SendInvite(to, householdName, inviterName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentInvite{to, householdName, inviterName})
	return m.err
}

type fixture struct {
	db         *sql.DB
	households *store.HouseholdStore
	resolver   *Resolver
	service    *Service
	directory  *fakeDirectory
	mailer     *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	hs := store.NewHouseholdStore(db)
	dir := &fakeDirectory{profiles: map[string]identity.Profile{}}
	mailer := &fakeMailer{}
	return &fixture{
		db:         db,
		households: hs,
		resolver:   NewResolver(hs, slog.Default()),
		service:    NewService(hs, dir, mailer, slog.Default()),
		directory:  dir,
		mailer:     mailer,
	}
}

// join resolves id and returns the auth context it would act with.
func (f *fixture) join(t *testing.T, id identity.Identity) auth.AuthContext {
	t.Helper()
	if _, err := store.NewUserStore(f.db).Upsert(context.Background(), id.UserID, id.Email, id.Name); err != nil {
		t.Fatalf("upsert %s: %v", id.UserID, err)
	}
	h, m, err := f.resolver.GetOrCreate(context.Background(), id)
	if err != nil {
		t.Fatalf("resolve %s: %v", id.UserID, err)
	}
	return auth.AuthContext{
		UserID:      id.UserID,
		Email:       id.Email,
		Name:        id.Name,
		HouseholdID: h.ID,
		MemberID:    m.ID,
		Role:        m.Role,
	}
}

func (f *fixture) countHouseholds(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM households`).Scan(&n); err != nil {
		t.Fatalf("count households: %v", err)
	}
	return n
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

var (
	alice = identity.Identity{UserID: "alice-id", Email: "alice@example.com", Name: "Alice"}
	bob   = identity.Identity{UserID: "bob-id", Email: "bob@example.com", Name: "Bob"}
	carol = identity.Identity{UserID: "carol-id", Email: "carol@example.com", Name: "Carol"}
)

