// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package authz

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/models"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(config.CasbinConfig{CacheEnabled: true, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func subjectWith(id int64, role models.Role, staff bool) *auth.Subject {
	return auth.NewSubject(&models.User{ID: id, Username: "u", Role: role, Staff: staff})
}

func TestAuthorize(t *testing.T) {
	e := setupEngine(t)

	anon := auth.Anonymous()
	user := subjectWith(1, models.RoleUser, false)
	other := subjectWith(2, models.RoleUser, false)
	mod := subjectWith(3, models.RoleModerator, false)
	admin := subjectWith(4, models.RoleAdmin, false)
	staff := subjectWith(5, models.RoleUser, true)

	tests := []struct {
		name    string
		subject *auth.Subject
		action  Action
		res     Resource
		want    error
	}{
		// Reads
		{"anon lists titles", anon, ActionList, On(KindTitle), nil},
		{"anon retrieves review", anon, ActionRetrieve, OwnedBy(KindReview, 1), nil},
		{"anon lists comments", anon, ActionList, On(KindComment), nil},
		{"user retrieves genre", user, ActionRetrieve, On(KindGenre), nil},

		// Anonymous pre-check
		{"anon creates review", anon, ActionCreate, On(KindReview), models.ErrUnauthenticated},
		{"anon deletes title", anon, ActionDelete, On(KindTitle), models.ErrUnauthenticated},
		{"anon lists users", anon, ActionList, On(KindUser), models.ErrUnauthenticated},
		{"anon retrieves user", anon, ActionRetrieve, OwnedBy(KindUser, 1), models.ErrUnauthenticated},

		// Catalog writes
		{"user creates title", user, ActionCreate, On(KindTitle), models.ErrForbidden},
		{"moderator creates category", mod, ActionCreate, On(KindCategory), models.ErrForbidden},
		{"admin creates title", admin, ActionCreate, On(KindTitle), nil},
		{"admin deletes genre", admin, ActionDelete, On(KindGenre), nil},
		{"staff updates title", staff, ActionUpdate, On(KindTitle), nil},

		// Reviews and comments
		{"user creates review", user, ActionCreate, On(KindReview), nil},
		{"user creates comment", user, ActionCreate, On(KindComment), nil},
		{"author updates review", user, ActionUpdate, OwnedBy(KindReview, 1), nil},
		{"author deletes comment", user, ActionDelete, OwnedBy(KindComment, 1), nil},
		{"non-author updates review", other, ActionUpdate, OwnedBy(KindReview, 1), models.ErrForbidden},
		{"non-author deletes comment", other, ActionDelete, OwnedBy(KindComment, 1), models.ErrForbidden},
		{"moderator updates review", mod, ActionUpdate, OwnedBy(KindReview, 1), nil},
		{"moderator deletes comment", mod, ActionDelete, OwnedBy(KindComment, 1), nil},
		{"admin deletes review", admin, ActionDelete, OwnedBy(KindReview, 1), nil},
		{"staff deletes review", staff, ActionDelete, OwnedBy(KindReview, 1), nil},

		// Users
		{"self retrieves", user, ActionRetrieve, OwnedBy(KindUser, 1), nil},
		{"self updates", user, ActionUpdate, OwnedBy(KindUser, 1), nil},
		{"self deletes", user, ActionDelete, OwnedBy(KindUser, 1), models.ErrForbidden},
		{"self changes role", user, ActionUpdateRole, OwnedBy(KindUser, 1), models.ErrForbidden},
		{"user updates other", other, ActionUpdate, OwnedBy(KindUser, 1), models.ErrForbidden},
		{"user lists users", user, ActionList, On(KindUser), models.ErrForbidden},
		{"moderator lists users", mod, ActionList, On(KindUser), models.ErrForbidden},
		{"admin lists users", admin, ActionList, On(KindUser), nil},
		{"admin creates user", admin, ActionCreate, On(KindUser), nil},
		{"admin changes role", admin, ActionUpdateRole, OwnedBy(KindUser, 1), nil},
		{"staff deletes user", staff, ActionDelete, OwnedBy(KindUser, 1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Authorize(tt.subject, tt.action, tt.res)
			if tt.want == nil {
				if err != nil {
					t.Errorf("Authorize() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthorize_OwnershipDoesNotCrossKinds(t *testing.T) {
	e := setupEngine(t)
	user := subjectWith(1, models.RoleUser, false)

	// Owning a review grants nothing on catalog kinds.
	if err := e.Authorize(user, ActionDelete, OwnedBy(KindTitle, 1)); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("Authorize() error = %v, want ErrForbidden", err)
	}
}

func TestAuthorize_UnknownRoleTreatedAsUser(t *testing.T) {
	e := setupEngine(t)
	odd := subjectWith(1, models.Role("superuser"), false)

	if err := e.Authorize(odd, ActionCreate, On(KindReview)); err != nil {
		t.Errorf("Authorize(create review) error = %v, want nil", err)
	}
	if err := e.Authorize(odd, ActionCreate, On(KindTitle)); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("Authorize(create title) error = %v, want ErrForbidden", err)
	}
}

func TestAuthorize_Concurrent(t *testing.T) {
	e := setupEngine(t)
	subjects := []*auth.Subject{
		auth.Anonymous(),
		subjectWith(1, models.RoleUser, false),
		subjectWith(2, models.RoleModerator, false),
		subjectWith(3, models.RoleAdmin, false),
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := subjects[i%len(subjects)]
			for j := 0; j < 50; j++ {
				_ = e.Authorize(s, ActionRetrieve, On(KindTitle))
				_ = e.Authorize(s, ActionUpdate, OwnedBy(KindReview, 1))
			}
		}(i)
	}
	wg.Wait()

	if err := e.Authorize(subjects[0], ActionRetrieve, On(KindTitle)); err != nil {
		t.Errorf("Authorize() after concurrent use error = %v", err)
	}
}

func TestRolesFor(t *testing.T) {
	tests := []struct {
		name    string
		subject *auth.Subject
		res     Resource
		want    []string
	}{
		{"anonymous", auth.Anonymous(), On(KindTitle), []string{RoleAnonymous}},
		{"user", subjectWith(1, models.RoleUser, false), On(KindTitle), []string{"user"}},
		{"staff", subjectWith(1, models.RoleUser, true), On(KindTitle), []string{"user", "admin"}},
		{"admin staff", subjectWith(1, models.RoleAdmin, true), On(KindTitle), []string{"admin"}},
		{"author", subjectWith(1, models.RoleUser, false), OwnedBy(KindReview, 1), []string{"user", RoleAuthor}},
		{"self", subjectWith(1, models.RoleModerator, false), OwnedBy(KindUser, 1), []string{"moderator", RoleSelf}},
		{"not owner", subjectWith(1, models.RoleUser, false), OwnedBy(KindComment, 2), []string{"user"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rolesFor(tt.subject, tt.res)
			if len(got) != len(tt.want) {
				t.Fatalf("rolesFor() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rolesFor()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
