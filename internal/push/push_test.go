package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/store"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestConfigured(t *testing.T) {
	if NewService("", "", "", nil, slog.Default()).Configured() {
		t.Error("expected Configured() = false without keys")
	}
	if !NewService("pub", "priv", "", nil, slog.Default()).Configured() {
		t.Error("expected Configured() = true with keys")
	}
}

// clientKeys returns a browser-style p256dh and auth secret.
func clientKeys(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	secret := make([]byte, 16)
	rand.Read(secret)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestNotifyRemovesExpiredSubscriptions(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	h, _, err := store.NewHouseholdStore(db).CreateWithOwner(ctx, "home", "u1")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	var delivered atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		delivered.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	subs := store.NewPushStore(db)
	p256dh, auth := clientKeys(t)
	subs.Subscribe(ctx, h.ID, "u1", server.URL+"/live", p256dh, auth)
	subs.Subscribe(ctx, h.ID, "u1", server.URL+"/gone", p256dh, auth)

	pub, priv, _ := GenerateVAPIDKeys()
	svc := NewService(pub, priv, "mailto:test@example.com", subs, slog.Default(), WithHTTPClient(server.Client()))

	sent := svc.Notify(ctx, h.ID, Payload{Title: "Chore completed", Body: "Take out trash"})
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
	if delivered.Load() != 1 {
		t.Errorf("delivered = %d, want 1", delivered.Load())
	}

	left, _ := subs.ListByHousehold(ctx, h.ID)
	if len(left) != 1 || left[0].Endpoint != server.URL+"/live" {
		t.Errorf("subscriptions = %+v, want only the live endpoint", left)
	}
}
