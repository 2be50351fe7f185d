// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

/*
Package main is the entry point for the Critique server.

Critique serves a catalog of titles grouped by category and genre. Users
review titles with a 1..10 score and discuss reviews in comments; every
title carries the mean of its scores, kept current on each review write.

# Startup

 1. Configuration: koanf defaults, optional YAML file, environment
 2. Logging: zerolog, JSON or console
 3. Database: SQLite file, schema applied on open
 4. Credentials, access policy, mail dispatcher, rating aggregator
 5. Supervisor tree with the HTTP server and the rating sweep

# Configuration

	JWT_SECRET=<32+ chars>       # required
	HTTP_PORT=8080
	DATABASE_PATH=data/critique.db
	MAIL_BACKEND=log             # log or smtp
	SMTP_HOST=mail.example.com   # required with MAIL_BACKEND=smtp
	RATING_RECONCILE_EVERY=6h    # 0 disables the sweep
	LOG_LEVEL=info
	LOG_FORMAT=json

CONFIG_PATH names a YAML file using the same keys as the config structs.

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
up to SHUTDOWN_TIMEOUT before the database is closed.
*/
package main
