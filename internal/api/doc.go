// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

/*
Package api provides the HTTP REST API layer for Critique.

Key Components:

  - Router: chi route tree and middleware stack
  - Handler: one method per endpoint, delegating to the accounts, catalog
    and reviews services
  - Response formatting: every body is a models.APIResponse envelope
  - Error handling: domain sentinels are mapped to status codes in one
    table (errors.go)

Endpoints (all under /api/v1):

	POST   /auth/signup                          register or re-send a code
	POST   /auth/token                           exchange a code for a JWT
	GET    /categories, /genres                  list (search, limit, offset)
	POST   /categories, /genres                  admin
	DELETE /categories/{slug}, /genres/{slug}    admin
	GET    /titles                               list (category, genre, name, year)
	POST   /titles                               admin
	GET    /titles/{title_id}
	PATCH  /titles/{title_id}                    admin; "category": null detaches
	DELETE /titles/{title_id}                    admin
	POST   /titles/{title_id}/rating/reconcile   admin
	GET    /titles/{title_id}/reviews[/{review_id}]
	POST   /titles/{title_id}/reviews            authenticated
	PATCH  /titles/{title_id}/reviews/{review_id}        author, moderator, admin
	DELETE /titles/{title_id}/reviews/{review_id}        author, moderator, admin
	...    /titles/{title_id}/reviews/{review_id}/comments[/{comment_id}]
	GET    /users, POST /users                   admin
	GET    /users/me, PATCH /users/me            authenticated
	GET    /users/{username} ...                 admin
	GET    /health/live, /health/ready

Prometheus metrics are served at /metrics outside the versioned prefix.

Error Mapping:

	not found                 404 NOT_FOUND
	conflict                  409 CONFLICT
	unauthenticated           401 UNAUTHORIZED
	forbidden                 403 FORBIDDEN
	invalid credential        400 INVALID_CREDENTIAL
	invalid input             400 VALIDATION_FAILED
	dispatch failed           502 EXTERNAL_SERVICE_FAILED
	aggregate contention      503 SERVICE_UNAVAILABLE
	anything else             500 INTERNAL_ERROR

Ratings are stored at full precision and rounded to one decimal only when
rendered.
*/
package api
