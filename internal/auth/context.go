package auth

import (
	"context"

	"github.com/dukerupert/hearth/internal/model"
)

type contextKey struct{}

// AuthContext is the resolved caller of a request: the verified identity and
// the household membership it acts through.
type AuthContext struct {
	UserID      string
	Email       string
	Name        string
	HouseholdID int64
	MemberID    int64
	Role        model.Role
}

// CanEdit reports whether the caller may mutate household data.
func (ac AuthContext) CanEdit() bool { return ac.Role.CanEdit() }

func (ac AuthContext) IsGuest() bool { return ac.Role.IsGuest() }

func (ac AuthContext) IsOwner() bool { return ac.Role == model.RoleOwner }

// DisplayName is the name shown in audit entries, falling back to the email.
func (ac AuthContext) DisplayName() string {
	if ac.Name != "" {
		return ac.Name
	}
	return ac.Email
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func HouseholdID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.HouseholdID
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
