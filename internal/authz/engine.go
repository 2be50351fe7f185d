// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package authz

import (
	"fmt"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/metrics"
	"github.com/tomtom215/critique/internal/models"
)

// Action is an operation on a resource.
type Action string

const (
	ActionList       Action = "list"
	ActionRetrieve   Action = "retrieve"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionUpdateRole Action = "update_role"
)

// ReadOnly reports whether a is a safe action.
func (a Action) ReadOnly() bool {
	return a == ActionList || a == ActionRetrieve
}

// Kind is a resource type.
type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"
)

// Policy roles beyond the stored user roles.
const (
	RoleAnonymous = "anonymous"
	RoleAuthor    = "author"
	RoleSelf      = "self"
)

// Resource identifies what is being accessed. OwnerID is the author for
// reviews and comments and the user itself for users; zero for
// collections and catalog entries.
type Resource struct {
	Kind    Kind
	OwnerID int64
}

// On is shorthand for an unowned resource of kind k.
func On(k Kind) Resource {
	return Resource{Kind: k}
}

// OwnedBy is shorthand for a resource with an owner.
func OwnedBy(k Kind, ownerID int64) Resource {
	return Resource{Kind: k, OwnerID: ownerID}
}

// Engine decides whether a subject may act on a resource. It never touches
// the store and is safe for concurrent use.
type Engine struct {
	enforcer *Enforcer
}

// NewEngine loads the policy described by cfg.
func NewEngine(cfg config.CasbinConfig) (*Engine, error) {
	enforcer, err := NewEnforcer(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{enforcer: enforcer}, nil
}

// Close releases the decision cache.
func (e *Engine) Close() {
	e.enforcer.Close()
}

// Reload re-reads a file-backed policy.
func (e *Engine) Reload() error {
	return e.enforcer.LoadPolicy()
}

// Authorize returns nil when allowed, an error wrapping
// models.ErrUnauthenticated when an anonymous subject attempts a write or
// touches user records, and an error wrapping models.ErrForbidden
// otherwise.
func (e *Engine) Authorize(subject *auth.Subject, action Action, res Resource) error {
	if subject.IsAnonymous() && (!action.ReadOnly() || res.Kind == KindUser) {
		metrics.RecordAuthzDecision(string(res.Kind), string(action), "unauthenticated")
		return fmt.Errorf("%w: %s %s requires authentication", models.ErrUnauthenticated, action, res.Kind)
	}

	allowed, err := e.enforcer.EnforceAny(rolesFor(subject, res), string(res.Kind), string(action))
	if err != nil {
		return err
	}
	if !allowed {
		metrics.RecordAuthzDecision(string(res.Kind), string(action), "forbidden")
		return fmt.Errorf("%w: may not %s %s", models.ErrForbidden, action, res.Kind)
	}
	metrics.RecordAuthzDecision(string(res.Kind), string(action), "allow")
	return nil
}

// rolesFor lists the policy roles subject holds for res. Ownership roles
// are dynamic and never stored.
func rolesFor(subject *auth.Subject, res Resource) []string {
	if subject.IsAnonymous() {
		return []string{RoleAnonymous}
	}
	u := subject.User

	role := u.Role
	if !role.Valid() {
		role = models.RoleUser
	}
	roles := []string{string(role)}
	if u.HasAdminCapability() && role != models.RoleAdmin {
		roles = append(roles, string(models.RoleAdmin))
	}

	if res.OwnerID != 0 && res.OwnerID == u.ID {
		switch res.Kind {
		case KindUser:
			roles = append(roles, RoleSelf)
		case KindReview, KindComment:
			roles = append(roles, RoleAuthor)
		}
	}
	return roles
}
