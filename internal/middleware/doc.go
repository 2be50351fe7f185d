// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

/*
Package middleware provides HTTP infrastructure middleware.

Key Components:
  - Request ID: reuses an upstream X-Request-ID or generates a UUID, and
    puts it in the logging context
  - Prometheus Metrics: request count, duration and in-flight gauge labeled
    by the chi route pattern, not the raw path
  - Request Log: one structured zerolog line per request

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.PrometheusMetrics)

Labeling by route pattern keeps metric cardinality bounded by the number of
routes: /api/v1/titles/7/reviews and /api/v1/titles/9/reviews are both
recorded as /api/v1/titles/{title_id}/reviews.
*/
package middleware
