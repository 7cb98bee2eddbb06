package model

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleGuest:
		return true
	}
	return false
}

// CanEdit reports whether the role may mutate household items.
func (r Role) CanEdit() bool { return r == RoleOwner || r == RoleMember }

// IsGuest reports whether the role is read-only.
func (r Role) IsGuest() bool { return r == RoleGuest }

type MemberStatus string

const (
	StatusPending  MemberStatus = "pending"
	StatusAccepted MemberStatus = "accepted"
)

type Household struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// HouseholdMember links an identity (or, while pending, an invited email)
// to a household.
type HouseholdMember struct {
	ID           int64        `json:"id"`
	HouseholdID  int64        `json:"householdId"`
	UserID       *string      `json:"userId"`
	InvitedEmail *string      `json:"invitedEmail"`
	Role         Role         `json:"role"`
	Status       MemberStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// MemberProfile is a member enriched with the display fields of its identity.
type MemberProfile struct {
	HouseholdMember
	Name  string `json:"name"`
	Email string `json:"email"`
	// Primary marks the earliest accepted owner of the household.
	Primary bool `json:"primary"`
}

// Invite is a pending membership as seen by the invited identity.
type Invite struct {
	ID            int64     `json:"id"`
	HouseholdID   int64     `json:"householdId"`
	HouseholdName string    `json:"householdName"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}
