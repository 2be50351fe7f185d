// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/critique/internal/models"
)

// Error codes for API responses.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeInvalidCredential   = "INVALID_CREDENTIAL"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeExternalServiceFail = "EXTERNAL_SERVICE_FAILED"
)

// errorMapping pairs a domain sentinel with its HTTP rendering. Checked in
// order; the first errors.Is match wins.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty: use err.Error()
}

var errorMappings = []errorMapping{
	{models.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, ""},
	{models.ErrConflict, http.StatusConflict, ErrCodeConflict, ""},
	{models.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized, ""},
	{models.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, ""},
	{models.ErrInvalidCredential, http.StatusBadRequest, ErrCodeInvalidCredential, ""},
	{models.ErrInvalidInput, http.StatusBadRequest, ErrCodeValidationFailed, ""},
	{models.ErrDispatchFailed, http.StatusBadGateway, ErrCodeExternalServiceFail, "confirmation message could not be sent"},
	{models.ErrAggregateContention, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "title is busy, retry the request"},
}

// classify maps err to a status, code and client-safe message. Unknown
// errors are 500 and their text is not exposed.
func classify(err error) (status int, code, message string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message = m.message
			if message == "" {
				message = err.Error()
			}
			return m.status, m.code, message
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError, "internal server error"
}
