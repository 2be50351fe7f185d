// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package models

import "time"

// Role is the coarse permission level of a user.
type Role string

// Roles, ordered from least to most privileged.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ReservedUsername cannot be registered because it collides with the
// self-service profile route.
const ReservedUsername = "me"

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account. Users authenticate only through
// confirmation codes, so there is no password.
type User struct {
	ID          int64      `json:"-"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Bio         string     `json:"bio"`
	Role        Role       `json:"role"`
	Staff       bool       `json:"-"`
	JoinedAt    time.Time  `json:"-"`
	LastLoginAt *time.Time `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// HasAdminCapability is the single check for administrative authority.
// It is granted either by the admin role or by the staff flag.
func (u *User) HasAdminCapability() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.Staff
}

// IsModerator reports moderator authority or better.
func (u *User) IsModerator() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleModerator || u.HasAdminCapability()
}

// UserPatch carries optional profile fields for partial updates.
// A nil pointer leaves the field unchanged.
type UserPatch struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

// UserFilter selects users for admin listings.
type UserFilter struct {
	Search string
	Page   Page
}
