// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected *bool   `json:"database_connected,omitempty"`
	Uptime            float64 `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving. It never touches the
// store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, HealthStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports 503 until the store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	connected := h.store != nil && h.store.Ping(ctx) == nil
	status, code := "ready", http.StatusOK
	if !connected {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	respondData(w, r, code, HealthStatus{
		Status:            status,
		DatabaseConnected: &connected,
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}
