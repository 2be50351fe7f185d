// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func metadata(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data any) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: metadata(r),
	})
}

// respondList writes a list with its paging window. A nil slice is sent
// as [].
func respondList[T any](w http.ResponseWriter, r *http.Request, items []T, p models.Page) {
	if items == nil {
		items = []T{}
	}
	meta := metadata(r)
	meta.Paging = &models.PagingInfo{Limit: p.Limit, Offset: p.Offset, Count: len(items)}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     items,
		Metadata: meta,
	})
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError sends an error response. err, when non-nil, is logged but
// never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Data:     nil,
		Metadata: metadata(r),
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondServiceError renders a service error through the sentinel
// mapping. Validation failures carry their field list as details.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	var details any
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		details = verr.Fields
		message = "validation failed"
	}
	respondError(w, r, status, code, message, details, err)
}

// decodeJSON reads a JSON object body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return unmarshalStrict(body, v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, validation.Invalid("body", fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, validation.Invalid("body", "request body is required")
	}
	return body, nil
}

func unmarshalStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return validation.Invalid(typeErr.Field, typeErr.Field+" has the wrong type")
		}
		return validation.Invalid("body", "malformed JSON: "+err.Error())
	}
	return nil
}

// pathID parses a positive integer path parameter. Malformed ids are
// reported as not found: no such resource can exist.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, sanitizeLogValue(raw), models.ErrNotFound)
	}
	return id, nil
}

// pathIDs parses several path ids, stopping at the first failure.
func pathIDs(r *http.Request, names ...string) ([]int64, error) {
	out := make([]int64, len(names))
	for i, name := range names {
		id, err := pathID(r, name)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Invalid(key, key+" must be an integer")
	}
	return v, nil
}

// page reads limit and offset. Limit defaults to the configured page size
// and is capped at the maximum.
func (h *Handler) page(r *http.Request) (models.Page, error) {
	limit, err := getIntParam(r, "limit", h.api.DefaultPageSize)
	if err != nil {
		return models.Page{}, err
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		return models.Page{}, err
	}
	if limit < 1 {
		return models.Page{}, validation.Invalid("limit", "limit must be positive")
	}
	if offset < 0 {
		return models.Page{}, validation.Invalid("offset", "offset must not be negative")
	}
	if h.api.MaxPageSize > 0 && limit > h.api.MaxPageSize {
		limit = h.api.MaxPageSize
	}
	return models.Page{Limit: limit, Offset: offset}, nil
}

// roundRating rounds a stored mean to one decimal for presentation.
func roundRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := math.Round(*r*10) / 10
	return &v
}

func presentTitle(t models.Title) models.Title {
	t.Rating = roundRating(t.Rating)
	if t.Genres == nil {
		t.Genres = []models.Genre{}
	}
	return t
}

func presentTitles(ts []models.Title) []models.Title {
	out := make([]models.Title, len(ts))
	for i := range ts {
		out[i] = presentTitle(ts[i])
	}
	return out
}

type ratingView struct {
	Rating      *float64 `json:"rating"`
	ReviewCount int      `json:"review_count"`
}

func presentAggregate(a models.Aggregate) ratingView {
	return ratingView{Rating: roundRating(a.Rating), ReviewCount: a.ReviewCount}
}
