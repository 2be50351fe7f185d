// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package authz is the access policy engine.
//
// Decisions are made by Casbin over an RBAC model whose request is
// (role, resource kind, action):
//
//	Request -> auth.Middleware -> handler -> service -> Engine.Authorize
//	               |                                        |
//	         Subject (store-loaded)               roles -> Casbin
//
// # Roles
//
// Stored roles form the hierarchy admin > moderator > user > anonymous.
// The staff flag grants admin in addition to the stored role. Two roles
// are derived per request from ownership: author, for a review or
// comment the subject wrote, and self, for the subject's own user record.
//
// # Policy
//
// The model and policy are embedded (model.conf, policy.csv) and may be
// replaced by files named in config.CasbinConfig. Actions in the policy
// are anchored regular expressions.
//
// # Caching
//
// Casbin decisions are cached by (role, kind, action) for the configured
// TTL. The key space is bounded by the number of roles, kinds and actions.
package authz
