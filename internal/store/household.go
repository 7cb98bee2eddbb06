package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	var userID, invitedEmail sql.NullString
	var role, status string

	err := scanner.Scan(&m.ID, &m.HouseholdID, &userID, &invitedEmail, &role, &status, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	m.Role = model.Role(role)
	m.Status = model.MemberStatus(status)
	if userID.Valid {
		m.UserID = &userID.String
	}
	if invitedEmail.Valid {
		m.InvitedEmail = &invitedEmail.String
	}
	return &m, nil
}

const householdCols = `id, name, created_at`
const householdMemberCols = `id, household_id, user_id, invited_email, role, status, created_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateWithOwner inserts a household and its accepted owner membership in a
// single transaction.
func (s *HouseholdStore) CreateWithOwner(ctx context.Context, name, userID string) (*model.Household, *model.HouseholdMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return nil, nil, fmt.Errorf("insert household: %w", err)
	}
	householdID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, role, status) VALUES (?, ?, ?, ?)`,
		householdID, userID, model.RoleOwner, model.StatusAccepted,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert owner: %w", err)
	}
	memberID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	h, err := scanHousehold(tx.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, householdID))
	if err != nil {
		return nil, nil, fmt.Errorf("get household: %w", err)
	}
	m, err := getMemberByID(ctx, tx, memberID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return h, m, nil
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

func getMemberByID(ctx context.Context, q queryer, id int64) (*model.HouseholdMember, error) {
	row := q.QueryRowContext(ctx, `SELECT `+householdMemberCols+` FROM household_members WHERE id = ?`, id)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMember returns the member with the given id if it belongs to householdID.
func (s *HouseholdStore) GetMember(ctx context.Context, householdID, memberID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members WHERE id = ? AND household_id = ?`,
		memberID, householdID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetAcceptedMembership returns the single accepted membership of userID.
func (s *HouseholdStore) GetAcceptedMembership(ctx context.Context, userID string) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members WHERE user_id = ? AND status = 'accepted'`,
		userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get accepted membership: %w", err)
	}
	return m, nil
}

// FindPendingInvite returns the oldest pending invite addressed to email.
func (s *HouseholdStore) FindPendingInvite(ctx context.Context, email string) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members
		 WHERE invited_email = ? AND status = 'pending'
		 ORDER BY created_at ASC, id ASC LIMIT 1`,
		email,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending invite: %w", err)
	}
	return m, nil
}

// GetPendingInvite returns invite inviteID if it is still pending and
// addressed to email.
func (s *HouseholdStore) GetPendingInvite(ctx context.Context, inviteID int64, email string) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members
		 WHERE id = ? AND invited_email = ? AND status = 'pending'`,
		inviteID, email,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending invite: %w", err)
	}
	return m, nil
}

// AcceptInvite binds a pending invite to userID. It returns nil if the
// invite was no longer pending.
func (s *HouseholdStore) AcceptInvite(ctx context.Context, inviteID int64, userID string) (*model.HouseholdMember, error) {
	return acceptInvite(ctx, s.db, inviteID, userID)
}

func acceptInvite(ctx context.Context, q queryer, inviteID int64, userID string) (*model.HouseholdMember, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE household_members SET user_id = ?, status = 'accepted' WHERE id = ? AND status = 'pending'`,
		userID, inviteID,
	)
	if err != nil {
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return getMemberByID(ctx, q, inviteID)
}

// SwitchToInvite accepts inviteID for userID after dropping the user's
// current accepted membership. A household left with no accepted members is
// deleted along with its items.
func (s *HouseholdStore) SwitchToInvite(ctx context.Context, inviteID int64, userID string) (*model.HouseholdMember, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var previousHousehold sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT household_id FROM household_members WHERE user_id = ? AND status = 'accepted'`,
		userID,
	).Scan(&previousHousehold)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get current membership: %w", err)
	}

	if previousHousehold.Valid {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM household_members WHERE user_id = ? AND status = 'accepted'`,
			userID,
		); err != nil {
			return nil, fmt.Errorf("leave household: %w", err)
		}

		var remaining int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM household_members WHERE household_id = ? AND status = 'accepted'`,
			previousHousehold.Int64,
		).Scan(&remaining); err != nil {
			return nil, fmt.Errorf("count remaining members: %w", err)
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, previousHousehold.Int64); err != nil {
				return nil, fmt.Errorf("delete empty household: %w", err)
			}
		}
	}

	m, err := acceptInvite(ctx, tx, inviteID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) AddInvite(ctx context.Context, householdID int64, email string, role model.Role) (*model.HouseholdMember, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO household_members (household_id, invited_email, role, status) VALUES (?, ?, ?, 'pending')`,
		householdID, email, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add invite: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return getMemberByID(ctx, s.db, id)
}

// HasMemberWithEmail reports whether email already belongs to householdID,
// either as a pending invite or through an accepted identity.
func (s *HouseholdStore) HasMemberWithEmail(ctx context.Context, householdID int64, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM household_members hm
		 LEFT JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		   AND ((hm.status = 'pending' AND hm.invited_email = ?)
		     OR (hm.status = 'accepted' AND u.email = ? COLLATE NOCASE))`,
		householdID, email, email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check member email: %w", err)
	}
	return n > 0, nil
}

func (s *HouseholdStore) ListMembers(ctx context.Context, householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ListInvitesForEmail returns the pending invites addressed to email along
// with the inviting household's name.
func (s *HouseholdStore) ListInvitesForEmail(ctx context.Context, email string) ([]model.Invite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hm.id, hm.household_id, h.name, hm.role, hm.created_at
		 FROM household_members hm
		 JOIN households h ON h.id = hm.household_id
		 WHERE hm.invited_email = ? AND hm.status = 'pending'
		 ORDER BY hm.created_at ASC, hm.id ASC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	var invites []model.Invite
	for rows.Next() {
		var inv model.Invite
		var role string
		if err := rows.Scan(&inv.ID, &inv.HouseholdID, &inv.HouseholdName, &role, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		inv.Role = model.Role(role)
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// Owner returns the earliest-created accepted owner of householdID.
func (s *HouseholdStore) Owner(ctx context.Context, householdID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members
		 WHERE household_id = ? AND role = 'owner' AND status = 'accepted'
		 ORDER BY created_at ASC, id ASC LIMIT 1`,
		householdID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return m, nil
}

// CountAccepted returns the number of accepted members and, of those, owners.
func (s *HouseholdStore) CountAccepted(ctx context.Context, householdID int64) (members, owners int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN role = 'owner' THEN 1 ELSE 0 END), 0)
		 FROM household_members WHERE household_id = ? AND status = 'accepted'`,
		householdID,
	).Scan(&members, &owners)
	if err != nil {
		return 0, 0, fmt.Errorf("count accepted: %w", err)
	}
	return members, owners, nil
}

func (s *HouseholdStore) UpdateMemberRole(ctx context.Context, householdID, memberID int64, role model.Role) (*model.HouseholdMember, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE household_members SET role = ? WHERE id = ? AND household_id = ?`,
		role, memberID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return s.GetMember(ctx, householdID, memberID)
}

// RemoveMember deletes a membership or pending invite. It reports whether a
// row was removed.
func (s *HouseholdStore) RemoveMember(ctx context.Context, householdID, memberID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM household_members WHERE id = ? AND household_id = ?`,
		memberID, householdID,
	)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteInvite removes a pending invite addressed to email.
func (s *HouseholdStore) DeleteInvite(ctx context.Context, inviteID int64, email string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM household_members WHERE id = ? AND invited_email = ? AND status = 'pending'`,
		inviteID, email,
	)
	if err != nil {
		return false, fmt.Errorf("delete invite: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
