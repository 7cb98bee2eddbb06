package household

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// profileConcurrency bounds parallel profile lookups per member listing.
const profileConcurrency = 8

// Mailer delivers invite emails.
type Mailer interface {
	Configured() bool
	SendInvite(toEmail, householdName, inviterName string) error
}

type Service struct {
	households *store.HouseholdStore
	directory  identity.Directory
	mailer     Mailer
	logger     *slog.Logger
}

func NewService(households *store.HouseholdStore, directory identity.Directory, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		households: households,
		directory:  directory,
		mailer:     mailer,
		logger:     logger,
	}
}

// ListMembers returns every membership and pending invite of the household
// with display names looked up from the directory. A failed lookup fails the
// whole listing.
func (s *Service) ListMembers(ctx context.Context, householdID int64) ([]model.MemberProfile, error) {
	members, err := s.households.ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}

	profiles := make([]model.MemberProfile, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileConcurrency)
	for i, m := range members {
		profiles[i] = model.MemberProfile{HouseholdMember: m}
		if m.InvitedEmail != nil {
			profiles[i].Email = *m.InvitedEmail
		}
		if m.UserID == nil {
			continue
		}
		g.Go(func() error {
			p, err := s.directory.Profile(gctx, *m.UserID)
			if err != nil {
				return fmt.Errorf("profile for member %d: %w", m.ID, err)
			}
			profiles[i].Name = p.Name
			if p.Email != "" {
				profiles[i].Email = p.Email
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owner, err := s.households.Owner(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		for i := range profiles {
			profiles[i].Primary = profiles[i].ID == owner.ID
		}
	}
	return profiles, nil
}

// Invite adds a pending membership for email. Owners and members may invite;
// only owners may invite another owner. The invite email is sent best-effort.
func (s *Service) Invite(ctx context.Context, actor auth.AuthContext, email string, role model.Role) (*model.HouseholdMember, error) {
	if !actor.CanEdit() {
		return nil, ErrForbidden
	}
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return nil, invalid("invalid role")
	}
	if role == model.RoleOwner && !actor.IsOwner() {
		return nil, ErrForbidden
	}

	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	exists, err := s.households.HasMemberWithEmail(ctx, actor.HouseholdID, addr)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("email is already a member or invited")
	}

	m, err := s.households.AddInvite(ctx, actor.HouseholdID, addr, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("member invited", "household_id", actor.HouseholdID, "member_id", m.ID, "role", role)

	s.sendInvite(ctx, actor, addr)
	return m, nil
}

func (s *Service) sendInvite(ctx context.Context, actor auth.AuthContext, to string) {
	if s.mailer == nil || !s.mailer.Configured() {
		return
	}
	h, err := s.households.GetByID(ctx, actor.HouseholdID)
	if err != nil || h == nil {
		s.logger.Error("load household for invite email", "household_id", actor.HouseholdID, "error", err)
		return
	}
	if err := s.mailer.SendInvite(to, h.Name, actor.DisplayName()); err != nil {
		s.logger.Error("send invite email", "household_id", actor.HouseholdID, "error", err)
	}
}

// ChangeRole sets the role of a member. Owner only.
func (s *Service) ChangeRole(ctx context.Context, actor auth.AuthContext, memberID int64, role model.Role) (*model.HouseholdMember, error) {
	if !actor.IsOwner() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, invalid("invalid role")
	}

	m, err := s.households.GetMember(ctx, actor.HouseholdID, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if m.Role == role {
		return m, nil
	}

	if m.Role == model.RoleOwner && m.Status == model.StatusAccepted {
		_, owners, err := s.households.CountAccepted(ctx, actor.HouseholdID)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, invalid("household must keep at least one owner")
		}
	}

	updated, err := s.households.UpdateMemberRole(ctx, actor.HouseholdID, memberID, role)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.logger.Info("member role changed", "household_id", actor.HouseholdID, "member_id", memberID, "role", role)
	return updated, nil
}

// Remove deletes a member or pending invite. Owners may remove anyone; any
// caller may remove their own membership.
func (s *Service) Remove(ctx context.Context, actor auth.AuthContext, memberID int64) error {
	if memberID == actor.MemberID {
		return s.RemoveSelf(ctx, actor)
	}
	if !actor.IsOwner() {
		return ErrForbidden
	}

	m, err := s.households.GetMember(ctx, actor.HouseholdID, memberID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if err := s.guardLastOwner(ctx, m); err != nil {
		return err
	}

	removed, err := s.households.RemoveMember(ctx, actor.HouseholdID, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	s.logger.Info("member removed", "household_id", actor.HouseholdID, "member_id", memberID)
	return nil
}

// RemoveSelf exits the caller's household. A household left without accepted
// members is deleted.
func (s *Service) RemoveSelf(ctx context.Context, actor auth.AuthContext) error {
	m, err := s.households.GetMember(ctx, actor.HouseholdID, actor.MemberID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if err := s.guardLastOwner(ctx, m); err != nil {
		return err
	}

	if _, err := s.households.RemoveMember(ctx, actor.HouseholdID, actor.MemberID); err != nil {
		return err
	}
	members, _, err := s.households.CountAccepted(ctx, actor.HouseholdID)
	if err != nil {
		return err
	}
	if members == 0 {
		if err := s.households.Delete(ctx, actor.HouseholdID); err != nil {
			return err
		}
		s.logger.Info("empty household deleted", "household_id", actor.HouseholdID)
	}
	s.logger.Info("member left household", "household_id", actor.HouseholdID, "member_id", actor.MemberID)
	return nil
}

// guardLastOwner rejects removing the only accepted owner while other
// accepted members remain.
func (s *Service) guardLastOwner(ctx context.Context, m *model.HouseholdMember) error {
	if m.Role != model.RoleOwner || m.Status != model.StatusAccepted {
		return nil
	}
	members, owners, err := s.households.CountAccepted(ctx, m.HouseholdID)
	if err != nil {
		return err
	}
	if owners <= 1 && members > 1 {
		return invalid("household must keep at least one owner")
	}
	return nil
}

// Current returns the caller's household and membership row.
func (s *Service) Current(ctx context.Context, actor auth.AuthContext) (*model.Household, *model.HouseholdMember, error) {
	if actor.HouseholdID == 0 {
		return nil, nil, ErrUnauthorized
	}
	h, err := s.households.GetByID(ctx, actor.HouseholdID)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.households.GetMember(ctx, actor.HouseholdID, actor.MemberID)
	if err != nil {
		return nil, nil, err
	}
	if h == nil || m == nil {
		return nil, nil, ErrNotFound
	}
	return h, m, nil
}

// Accept moves the caller into the household of a pending invite addressed
// to their email, leaving their current household.
func (s *Service) Accept(ctx context.Context, id identity.Identity, inviteID int64) (*model.Household, error) {
	if id.UserID == "" || id.Email == "" {
		return nil, ErrUnauthorized
	}

	invite, err := s.households.GetPendingInvite(ctx, inviteID, id.Email)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, ErrNotFound
	}

	current, err := s.households.GetAcceptedMembership(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := s.guardLastOwner(ctx, current); err != nil {
			return nil, err
		}
	}

	m, err := s.households.SwitchToInvite(ctx, inviteID, id.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}

	h, err := s.households.GetByID(ctx, m.HouseholdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	s.logger.Info("invite accepted", "household_id", h.ID, "member_id", m.ID)
	return h, nil
}

// Decline deletes a pending invite addressed to the caller's email.
func (s *Service) Decline(ctx context.Context, id identity.Identity, inviteID int64) error {
	if id.Email == "" {
		return ErrUnauthorized
	}
	deleted, err := s.households.DeleteInvite(ctx, inviteID, id.Email)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// PendingInvites lists the invites waiting for email.
func (s *Service) PendingInvites(ctx context.Context, email string) ([]model.Invite, error) {
	if email == "" {
		return nil, ErrUnauthorized
	}
	return s.households.ListInvitesForEmail(ctx, email)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}
