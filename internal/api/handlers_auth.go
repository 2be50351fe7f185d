// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"net/http"

	"github.com/tomtom215/critique/internal/accounts"
)

// Signup registers a user or re-sends a code for an existing
// (username, email) pair.
//
// POST /api/v1/auth/signup {"username": "...", "email": "..."}
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req accounts.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	res, err := h.accounts.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, res)
}

// Token exchanges a confirmation code for an access token.
//
// POST /api/v1/auth/token {"username": "...", "confirmation_code": "..."}
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req accounts.TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	res, err := h.accounts.RedeemCode(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, res)
}
