package model

import "testing"

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role    Role
		valid   bool
		canEdit bool
		guest   bool
	}{
		{RoleOwner, true, true, false},
		{RoleMember, true, true, false},
		{RoleGuest, true, false, true},
		{"admin", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.valid {
			t.Errorf("%q Valid = %v, want %v", tt.role, got, tt.valid)
		}
		if got := tt.role.CanEdit(); got != tt.canEdit {
			t.Errorf("%q CanEdit = %v, want %v", tt.role, got, tt.canEdit)
		}
		if got := tt.role.IsGuest(); got != tt.guest {
			t.Errorf("%q IsGuest = %v, want %v", tt.role, got, tt.guest)
		}
	}
}
