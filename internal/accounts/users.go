// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package accounts

import (
	"context"
	"fmt"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

// patchRules validates the fields present in a patch.
type patchRules struct {
	Username  *string      `json:"username" validate:"omitnil,max=150,username"`
	Email     *string      `json:"email" validate:"omitnil,max=254,email"`
	FirstName *string      `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string      `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string      `json:"bio" validate:"omitnil"`
	Role      *models.Role `json:"role" validate:"omitnil,oneof=user moderator admin"`
}

func validatePatch(p models.UserPatch) error {
	return validation.ValidateStruct(patchRules(p))
}

// applyPatch copies the set fields of p onto u. Role is applied only when
// allowRole is true.
func applyPatch(u *models.User, p models.UserPatch, allowRole bool) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if allowRole && p.Role != nil {
		u.Role = *p.Role
	}
}

// Me returns the subject's own record.
func (s *Service) Me(ctx context.Context, subject *auth.Subject) (*models.User, error) {
	if err := s.policy.Authorize(subject, authz.ActionRetrieve, authz.OwnedBy(authz.KindUser, subject.ID())); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, subject.ID())
}

// UpdateMe applies a self-service patch. The role field is ignored.
func (s *Service) UpdateMe(ctx context.Context, subject *auth.Subject, patch models.UserPatch) (*models.User, error) {
	if err := s.policy.Authorize(subject, authz.ActionUpdate, authz.OwnedBy(authz.KindUser, subject.ID())); err != nil {
		return nil, err
	}
	patch.Role = nil
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByID(ctx, subject.ID())
	if err != nil {
		return nil, err
	}
	applyPatch(u, patch, false)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers lists users for administrators.
func (s *Service) ListUsers(ctx context.Context, subject *auth.Subject, f models.UserFilter) ([]models.User, error) {
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindUser)); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, f)
}

// resolveUser loads the user addressed by username for action. Anyone
// other than the user themselves is checked against the collection first,
// so usernames cannot be enumerated without the permission.
func (s *Service) resolveUser(ctx context.Context, subject *auth.Subject, action authz.Action, username string) (*models.User, error) {
	if subject.Username() != username {
		if err := s.policy.Authorize(subject, action, authz.On(authz.KindUser)); err != nil {
			return nil, err
		}
	}
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, action, authz.OwnedBy(authz.KindUser, u.ID)); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a user by username.
func (s *Service) GetUser(ctx context.Context, subject *auth.Subject, username string) (*models.User, error) {
	return s.resolveUser(ctx, subject, authz.ActionRetrieve, username)
}

// CreateUserRequest is the administrative create payload.
type CreateUserRequest struct {
	Username  string      `json:"username" validate:"required,max=150,username"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// CreateUser creates a user directly, without a confirmation round trip.
func (s *Service) CreateUser(ctx context.Context, subject *auth.Subject, req CreateUserRequest) (*models.User, error) {
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindUser)); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	u := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("User created")
	return u, nil
}

// UpdateUser applies an administrative patch. Changing the role is a
// separate permission from editing the profile.
func (s *Service) UpdateUser(ctx context.Context, subject *auth.Subject, username string, patch models.UserPatch) (*models.User, error) {
	u, err := s.resolveUser(ctx, subject, authz.ActionUpdate, username)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Role != nil && *patch.Role != u.Role {
		if err := s.policy.Authorize(subject, authz.ActionUpdateRole, authz.OwnedBy(authz.KindUser, u.ID)); err != nil {
			return nil, err
		}
	}

	applyPatch(u, patch, true)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes a user and every review they wrote. The user row and
// the reviews go in the same transaction as the aggregate updates.
func (s *Service) DeleteUser(ctx context.Context, subject *auth.Subject, username string) error {
	u, err := s.resolveUser(ctx, subject, authz.ActionDelete, username)
	if err != nil {
		return err
	}

	removed, err := s.reviews.RemoveAuthor(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	logging.Ctx(ctx).Info().Str("username", username).Int("reviews_removed", removed).Msg("User deleted")
	return nil
}
