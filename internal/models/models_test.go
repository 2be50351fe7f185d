// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package models

import "testing"

func TestHasAdminCapability(t *testing.T) {
	tests := []struct {
		name  string
		user  *User
		admin bool
		mod   bool
	}{
		{"nil user", nil, false, false},
		{"plain user", &User{Role: RoleUser}, false, false},
		{"moderator", &User{Role: RoleModerator}, false, true},
		{"admin role", &User{Role: RoleAdmin}, true, true},
		{"staff user", &User{Role: RoleUser, Staff: true}, true, true},
		{"staff moderator", &User{Role: RoleModerator, Staff: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasAdminCapability(); got != tt.admin {
				t.Errorf("HasAdminCapability() = %v, want %v", got, tt.admin)
			}
			if got := tt.user.IsModerator(); got != tt.mod {
				t.Errorf("IsModerator() = %v, want %v", got, tt.mod)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleModerator, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}
	for _, r := range []Role{"", "root", "Admin"} {
		if r.Valid() {
			t.Errorf("Role(%q).Valid() = true, want false", r)
		}
	}
}
