// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/catalog"
	"github.com/tomtom215/critique/internal/models"
)

func (h *Handler) taxonomyFilter(r *http.Request) (models.TaxonomyFilter, error) {
	p, err := h.page(r)
	if err != nil {
		return models.TaxonomyFilter{}, err
	}
	return models.TaxonomyFilter{Search: r.URL.Query().Get("search"), Page: p}, nil
}

// ListCategories handles GET /categories?search=.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	f, err := h.taxonomyFilter(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	cats, err := h.catalog.ListCategories(r.Context(), auth.GetSubject(r.Context()), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, cats, f.Page)
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.TaxonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), auth.GetSubject(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, c)
}

// DeleteCategory handles DELETE /categories/{slug}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), auth.GetSubject(r.Context()), chi.URLParam(r, "slug")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// ListGenres handles GET /genres?search=.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	f, err := h.taxonomyFilter(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	genres, err := h.catalog.ListGenres(r.Context(), auth.GetSubject(r.Context()), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, genres, f.Page)
}

// CreateGenre handles POST /genres.
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var req catalog.TaxonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	g, err := h.catalog.CreateGenre(r.Context(), auth.GetSubject(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, g)
}

// DeleteGenre handles DELETE /genres/{slug}.
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteGenre(r.Context(), auth.GetSubject(r.Context()), chi.URLParam(r, "slug")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// ListTitles handles GET /titles?category=&genre=&name=&year=.
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	p, err := h.page(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	year, err := getIntParam(r, "year", 0)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := models.TitleFilter{
		CategorySlug: q.Get("category"),
		GenreSlug:    q.Get("genre"),
		Name:         q.Get("name"),
		Year:         year,
		Page:         p,
	}
	titles, err := h.catalog.ListTitles(r.Context(), auth.GetSubject(r.Context()), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, presentTitles(titles), p)
}

// GetTitle handles GET /titles/{title_id}.
func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	t, err := h.catalog.GetTitle(r.Context(), auth.GetSubject(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, presentTitle(*t))
}

// CreateTitle handles POST /titles.
func (h *Handler) CreateTitle(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTitleInput(w, r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	t, err := h.catalog.CreateTitle(r.Context(), auth.GetSubject(r.Context()), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, presentTitle(*t))
}

// UpdateTitle handles PATCH /titles/{title_id}. An explicit
// "category": null detaches the title from its category.
func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	in, err := decodeTitleInput(w, r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	t, err := h.catalog.UpdateTitle(r.Context(), auth.GetSubject(r.Context()), id, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, presentTitle(*t))
}

// DeleteTitle handles DELETE /titles/{title_id}.
func (h *Handler) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := h.catalog.DeleteTitle(r.Context(), auth.GetSubject(r.Context()), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// decodeTitleInput decodes a title body. A null category cannot be told
// apart from an absent one after decoding into a pointer, so the raw keys
// are inspected first.
func decodeTitleInput(w http.ResponseWriter, r *http.Request) (models.TitleInput, error) {
	var in models.TitleInput
	body, err := readBody(w, r)
	if err != nil {
		return in, err
	}
	if err := unmarshalStrict(body, &in); err != nil {
		return in, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err == nil {
		if v, ok := raw["category"]; ok && strings.TrimSpace(string(v)) == "null" {
			in.ClearCategory = true
			in.CategorySlug = nil
		}
	}
	return in, nil
}
