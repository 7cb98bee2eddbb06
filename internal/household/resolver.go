// Package household resolves the household an identity acts in and manages
// household membership.
package household

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

type Resolver struct {
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewResolver(households *store.HouseholdStore, logger *slog.Logger) *Resolver {
	return &Resolver{households: households, logger: logger}
}

// GetOrCreate returns the household id belongs to. An identity without a
// membership joins the oldest invite addressed to its email, or else becomes
// the owner of a new household named after its email.
func (r *Resolver) GetOrCreate(ctx context.Context, id identity.Identity) (*model.Household, *model.HouseholdMember, error) {
	if id.UserID == "" || id.Email == "" {
		return nil, nil, ErrUnauthorized
	}

	if h, m, err := r.current(ctx, id.UserID); err != nil || h != nil {
		return h, m, err
	}

	invite, err := r.households.FindPendingInvite(ctx, id.Email)
	if err != nil {
		return nil, nil, err
	}
	if invite != nil {
		m, err := r.households.AcceptInvite(ctx, invite.ID, id.UserID)
		if err != nil {
			return r.recover(ctx, id.UserID, err)
		}
		if m != nil {
			h, err := r.households.GetByID(ctx, m.HouseholdID)
			if err != nil {
				return nil, nil, err
			}
			r.logger.Info("invite accepted", "household_id", m.HouseholdID, "member_id", m.ID)
			return h, m, nil
		}
		// Another request took the invite first.
		if h, m, err := r.current(ctx, id.UserID); err != nil || h != nil {
			return h, m, err
		}
	}

	h, m, err := r.households.CreateWithOwner(ctx, nameFromEmail(id.Email), id.UserID)
	if err != nil {
		return r.recover(ctx, id.UserID, err)
	}
	r.logger.Info("household created", "household_id", h.ID)
	return h, m, nil
}

func (r *Resolver) current(ctx context.Context, userID string) (*model.Household, *model.HouseholdMember, error) {
	m, err := r.households.GetAcceptedMembership(ctx, userID)
	if err != nil || m == nil {
		return nil, nil, err
	}
	h, err := r.households.GetByID(ctx, m.HouseholdID)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, fmt.Errorf("membership %d references missing household %d", m.ID, m.HouseholdID)
	}
	return h, m, nil
}

// recover handles a write that lost to a concurrent request for the same
// identity: the one-accepted-membership index rejects the second write, and
// the membership the winner created is returned instead.
func (r *Resolver) recover(ctx context.Context, userID string, cause error) (*model.Household, *model.HouseholdMember, error) {
	h, m, err := r.current(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if h == nil {
		return nil, nil, cause
	}
	return h, m, nil
}

func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimSpace(local)
	if local == "" {
		return "Household"
	}
	return local
}
