package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// TokenCookieName carries the identity token for clients that cannot set an
// Authorization header, such as websocket upgrades from a browser.
const TokenCookieName = "hearth_token"

type TokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

// HouseholdResolver finds or creates the household of an identity.
type HouseholdResolver interface {
	GetOrCreate(ctx context.Context, id identity.Identity) (*model.Household, *model.HouseholdMember, error)
}

// RequireAuth verifies the caller's identity token, records the identity
// locally, resolves its household and populates AuthContext. Any failure is
// a 401.
func RequireAuth(verifier TokenVerifier, users *store.UserStore, resolver HouseholdResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := requestToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("token rejected", "error", err, "remote", RealIP(r))
				unauthorized(w)
				return
			}

			if _, err := users.Upsert(r.Context(), id.UserID, id.Email, id.Name); err != nil {
				logger.Error("upsert user", "user_id", id.UserID, "error", err)
				http.Error(w, "failed to load user", http.StatusInternalServerError)
				return
			}

			h, m, err := resolver.GetOrCreate(r.Context(), id)
			if err != nil {
				logger.Error("resolve household", "user_id", id.UserID, "error", err)
				http.Error(w, "failed to load household", http.StatusInternalServerError)
				return
			}

			ac := auth.AuthContext{
				UserID:      id.UserID,
				Email:       id.Email,
				Name:        id.Name,
				HouseholdID: h.ID,
				MemberID:    m.ID,
				Role:        m.Role,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireEditor rejects callers whose role may not change household items.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || !ac.CanEdit() {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) (string, bool) {
	if token, ok := identity.BearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
