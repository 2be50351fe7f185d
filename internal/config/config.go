// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package config loads and validates application configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional
// YAML file, then environment variables. See LoadWithKoanf.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Mail     MailConfig     `koanf:"mail"`
	Rating   RatingConfig   `koanf:"rating"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" is accepted for development.
	Path string `koanf:"path"`

	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY.
	BusyTimeout time.Duration `koanf:"busy_timeout"`

	MaxOpenConns int `koanf:"max_open_conns"`
}

// SecurityConfig holds credential and access control settings.
type SecurityConfig struct {
	// JWTSecret is the root secret. Access token signing keys and
	// confirmation code keys are both derived from it. Required.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// ConfirmationCodeTTL bounds how long a signup code stays redeemable.
	ConfirmationCodeTTL time.Duration `koanf:"confirmation_code_ttl"`

	Issuer string `koanf:"issuer"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	AuthRateLimitReqs int           `koanf:"auth_rate_limit_reqs"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig controls the access policy engine.
//
// Environment Variables:
//   - CASBIN_MODEL_PATH: model file overriding the embedded model
//   - CASBIN_POLICY_PATH: policy file overriding the embedded policy
//   - CASBIN_CACHE_ENABLED: cache decisions (default: true)
//   - CASBIN_CACHE_TTL: decision cache TTL (default: 5m)
type CasbinConfig struct {
	ModelPath    string        `koanf:"model_path"`
	PolicyPath   string        `koanf:"policy_path"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// MailConfig selects and configures the confirmation message transport.
type MailConfig struct {
	// Backend is "smtp" or "log". The log backend writes messages to the
	// application log and is meant for development.
	Backend string `koanf:"backend"`

	From     string `koanf:"from"`
	Subject  string `koanf:"subject"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	UseTLS   bool   `koanf:"use_tls"`

	Timeout time.Duration `koanf:"timeout"`

	// RatePerSecond and Burst throttle outgoing messages.
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`

	// Breaker settings for the transport circuit breaker.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// RatingConfig bounds the aggregate compare-and-swap retry loop.
type RatingConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`

	// ReconcileInterval is how often every title's rating is recomputed
	// from stored reviews. Zero disables the sweep.
	ReconcileInterval time.Duration `koanf:"reconcile_interval"`
}

// APIConfig holds list endpoint settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line in log events.
	Caller bool `koanf:"caller"`
}
