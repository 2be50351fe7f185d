// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package services adapts server components to suture.Service.
//
// HTTPServerService turns http.Server's blocking ListenAndServe into a
// context-aware Serve with graceful shutdown. ReconcileService sweeps the
// catalog on an interval and recomputes each title's rating from its
// stored reviews.
//
// Every service implements fmt.Stringer so supervisor events name it.
package services
