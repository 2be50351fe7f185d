// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"context"
	"time"

	"github.com/tomtom215/critique/internal/accounts"
	"github.com/tomtom215/critique/internal/catalog"
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/reviews"
)

// Pinger reports store reachability. Satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services behind every endpoint. Handlers parse the
// request, call one service method with the request subject, and render
// the result or error; they hold no state of their own.
type Handler struct {
	accounts  *accounts.Service
	catalog   *catalog.Service
	reviews   *reviews.Service
	store     Pinger
	api       config.APIConfig
	startTime time.Time
}

// NewHandler creates a Handler. Zero page sizes fall back to 20 and 100.
func NewHandler(acc *accounts.Service, cat *catalog.Service, rev *reviews.Service, store Pinger, cfg config.APIConfig) *Handler {
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = max(100, cfg.DefaultPageSize)
	}
	return &Handler{
		accounts:  acc,
		catalog:   cat,
		reviews:   rev,
		store:     store,
		api:       cfg,
		startTime: time.Now(),
	}
}
