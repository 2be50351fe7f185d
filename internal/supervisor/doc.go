// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package supervisor runs the long-lived parts of the server under a
// suture v4 supervision tree.
//
//	critique (root)
//	├── maintenance-layer
//	│   └── rating-reconcile
//	└── api-layer
//	    └── http-server
//
// A service that returns an error is restarted with backoff. A service
// that returns suture.ErrDoNotRestart, or the canceled context's error,
// is left stopped. Supervisor events are logged through sutureslog.
//
// Usage:
//
//	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
//	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
//	err := tree.Serve(ctx)
package supervisor
