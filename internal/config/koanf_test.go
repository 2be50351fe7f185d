// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// isolateConfigFile points CONFIG_PATH at a file that does not exist so a
// stray config.yaml does not leak into the test.
func isolateConfigFile(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Security.ConfirmationCodeTTL != 72*time.Hour {
		t.Errorf("ConfirmationCodeTTL = %v, want 72h", cfg.Security.ConfirmationCodeTTL)
	}
	if cfg.Rating.MaxAttempts != 5 {
		t.Errorf("Rating.MaxAttempts = %d, want 5", cfg.Rating.MaxAttempts)
	}
	if cfg.Mail.Backend != "log" {
		t.Errorf("Mail.Backend = %q, want log", cfg.Mail.Backend)
	}
}

func TestLoadWithKoanf_MissingSecret(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("LoadWithKoanf() error = nil, want missing secret error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error = %v, want mention of JWT_SECRET", err)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CASBIN_CACHE_ENABLED", "false")
	t.Setenv("RATING_MAX_ATTEMPTS", "8")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Security.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Security.TokenTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
	if cfg.Security.Casbin.CacheEnabled {
		t.Error("Casbin.CacheEnabled = true, want false")
	}
	if cfg.Rating.MaxAttempts != 8 {
		t.Errorf("Rating.MaxAttempts = %d, want 8", cfg.Rating.MaxAttempts)
	}
}

func TestLoadWithKoanf_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
mail:
  backend: smtp
  host: smtp.example.com
security:
  jwt_secret: "` + testSecret + `"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env value 7100 over file", cfg.Server.Port)
	}
	if cfg.Mail.Backend != "smtp" || cfg.Mail.Host != "smtp.example.com" {
		t.Errorf("Mail = %+v, want smtp backend from file", cfg.Mail)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with secret", func(*Config) {}, false},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"smtp without host", func(c *Config) { c.Mail.Backend = "smtp" }, true},
		{"unknown mail backend", func(c *Config) { c.Mail.Backend = "pigeon" }, true},
		{"zero attempts", func(c *Config) { c.Rating.MaxAttempts = 0 }, true},
		{"inverted backoff", func(c *Config) { c.Rating.MaxBackoff = time.Nanosecond }, true},
		{"negative reconcile interval", func(c *Config) { c.Rating.ReconcileInterval = -time.Second }, true},
		{"reconcile disabled", func(c *Config) { c.Rating.ReconcileInterval = 0 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"page size over max", func(c *Config) { c.API.DefaultPageSize = 500 }, true},
		{"rate limit disabled ignores limits", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWTSecret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
