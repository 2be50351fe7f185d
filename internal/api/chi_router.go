// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil chiMw uses the default middleware
// configuration.
func NewRouter(handler *Handler, authMw *auth.Middleware, chiMw *ChiMiddleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMw, chiMiddleware: chiMw}
}

// WriteServiceError renders err in the API envelope. It is the error
// writer handed to auth.NewMiddleware.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	respondServiceError(w, r, err)
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil, nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		// Credential exchange is anonymous by nature and gets the strict
		// limiter.
		r.Route("/auth", func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAuth())
			r.Post("/signup", h.Signup)
			r.Post("/token", h.Token)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(router.auth.Handler)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Delete("/{slug}", h.DeleteCategory)
			})
			r.Route("/genres", func(r chi.Router) {
				r.Get("/", h.ListGenres)
				r.Post("/", h.CreateGenre)
				r.Delete("/{slug}", h.DeleteGenre)
			})

			r.Route("/titles", func(r chi.Router) {
				r.Get("/", h.ListTitles)
				r.Post("/", h.CreateTitle)
				r.Route("/{title_id}", func(r chi.Router) {
					r.Get("/", h.GetTitle)
					r.Patch("/", h.UpdateTitle)
					r.Delete("/", h.DeleteTitle)
					r.Post("/rating/reconcile", h.ReconcileRating)

					r.Route("/reviews", func(r chi.Router) {
						r.Get("/", h.ListReviews)
						r.Post("/", h.CreateReview)
						r.Route("/{review_id}", func(r chi.Router) {
							r.Get("/", h.GetReview)
							r.Patch("/", h.UpdateReview)
							r.Delete("/", h.DeleteReview)

							r.Route("/comments", func(r chi.Router) {
								r.Get("/", h.ListComments)
								r.Post("/", h.CreateComment)
								r.Get("/{comment_id}", h.GetComment)
								r.Patch("/{comment_id}", h.UpdateComment)
								r.Delete("/{comment_id}", h.DeleteComment)
							})
						})
					})
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/me", h.Me)
				r.Patch("/me", h.UpdateMe)
				r.Get("/{username}", h.GetUser)
				r.Patch("/{username}", h.UpdateUser)
				r.Delete("/{username}", h.DeleteUser)
			})
		})
	})

	return r
}
