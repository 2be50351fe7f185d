// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/critique/internal/accounts"
	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/models"
)

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context(), auth.GetSubject(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, u)
}

// UpdateMe handles PATCH /users/me. A role in the body is ignored.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err)
		return
	}
	u, err := h.accounts.UpdateMe(r.Context(), auth.GetSubject(r.Context()), patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, u)
}

// ListUsers handles GET /users?search=.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	f := models.UserFilter{Search: r.URL.Query().Get("search"), Page: p}
	users, err := h.accounts.ListUsers(r.Context(), auth.GetSubject(r.Context()), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, users, p)
}

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req accounts.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	u, err := h.accounts.CreateUser(r.Context(), auth.GetSubject(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, u)
}

// GetUser handles GET /users/{username}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.GetUser(r.Context(), auth.GetSubject(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, u)
}

// UpdateUser handles PATCH /users/{username}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err)
		return
	}
	u, err := h.accounts.UpdateUser(r.Context(), auth.GetSubject(r.Context()), chi.URLParam(r, "username"), patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, u)
}

// DeleteUser handles DELETE /users/{username}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), auth.GetSubject(r.Context()), chi.URLParam(r, "username")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}
