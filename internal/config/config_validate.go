// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package config

import (
	"fmt"
	"strings"
)

// MinSecretLength is the minimum accepted length of JWT_SECRET.
const MinSecretLength = 32

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateRating(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be at least 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Security.ConfirmationCodeTTL <= 0 {
		return fmt.Errorf("CONFIRMATION_CODE_TTL must be positive")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 || c.Security.AuthRateLimitReqs < 1 {
			return fmt.Errorf("rate limits must be at least 1 request")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateMail() error {
	switch c.Mail.Backend {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_BACKEND=smtp")
		}
		if c.Mail.Port < 1 || c.Mail.Port > 65535 {
			return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", c.Mail.Port)
		}
	default:
		return fmt.Errorf("MAIL_BACKEND must be smtp or log, got %q", c.Mail.Backend)
	}
	if c.Mail.From == "" {
		return fmt.Errorf("MAIL_FROM is required")
	}
	if c.Mail.RatePerSecond <= 0 || c.Mail.Burst < 1 {
		return fmt.Errorf("mail rate limit must be positive")
	}
	return nil
}

func (c *Config) validateRating() error {
	if c.Rating.MaxAttempts < 1 {
		return fmt.Errorf("RATING_MAX_ATTEMPTS must be at least 1")
	}
	if c.Rating.InitialBackoff < 0 || c.Rating.MaxBackoff < c.Rating.InitialBackoff {
		return fmt.Errorf("rating backoff must satisfy 0 <= initial <= max")
	}
	if c.Rating.ReconcileInterval < 0 {
		return fmt.Errorf("RATING_RECONCILE_EVERY must not be negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API page sizes must satisfy 1 <= default <= max")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
