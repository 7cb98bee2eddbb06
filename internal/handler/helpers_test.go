package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukerupert/hearth/internal/audit"
	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
	"github.com/dukerupert/hearth/internal/websocket"
)

type emitted struct {
	householdID int64
	typ         string
	title       string
	body        string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []emitted
}

func (n *fakeNotifier) Emit(_ context.Context, householdID int64, typ, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, emitted{householdID, typ, title, body})
}

type broadcast struct {
	householdID int64
	msg         websocket.Message
}

type fakeHub struct {
	mu   sync.Mutex
	sent []broadcast
}

func (h *fakeHub) Broadcast(householdID int64, msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{householdID, msg})
}

type fixture struct {
	db       *sql.DB
	notifier *fakeNotifier
	hub      *fakeHub
	audit    *audit.Service
	fx       *Effects
	ac       auth.AuthContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h, m, err := store.NewHouseholdStore(db).CreateWithOwner(context.Background(), "home", "alice")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	f := &fixture{
		db:       db,
		notifier: &fakeNotifier{},
		hub:      &fakeHub{},
		audit:    audit.NewService(store.NewAuditLogStore(db), slog.Default()),
		ac: auth.AuthContext{
			UserID:      "alice",
			Email:       "alice@example.com",
			Name:        "Alice",
			HouseholdID: h.ID,
			MemberID:    m.ID,
			Role:        model.RoleOwner,
		},
	}
	f.fx = NewEffects(f.audit, f.notifier, f.hub, slog.Default())
	return f
}

// call invokes fn with a JSON body as the fixture's caller.
func (f *fixture) call(t *testing.T, fn http.HandlerFunc, method string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, "/", &buf)
	req = req.WithContext(auth.WithAuth(req.Context(), f.ac))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	page, err := f.audit.Query(context.Background(), f.ac.HouseholdID, audit.Query{})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	var actions []string
	for _, e := range page.Entries {
		actions = append(actions, e.ItemType+":"+e.Action)
	}
	return actions
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

// httptestGet invokes fn for target as the fixture's caller.
func httptestGet(t *testing.T, f *fixture, fn http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	req = req.WithContext(auth.WithAuth(req.Context(), f.ac))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}
