// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/models"
)

// maxClockSkew tolerates codes stamped slightly in the future by another
// instance.
const maxClockSkew = time.Minute

// CodeIssuer creates and checks confirmation codes.
//
// A code has the form "<unix seconds, base36>-<hex HMAC-SHA256>". The MAC
// covers the timestamp and the user's persisted state, including the last
// login time. Redeeming a code records a login, so the same code stops
// verifying; changing the email or role invalidates outstanding codes too.
// Nothing is stored.
type CodeIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodeIssuer creates an issuer keyed from cfg.JWTSecret.
func NewCodeIssuer(cfg *config.SecurityConfig) (*CodeIssuer, error) {
	key, err := deriveKey(cfg.JWTSecret, infoConfirmationCode)
	if err != nil {
		return nil, err
	}
	ttl := cfg.ConfirmationCodeTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &CodeIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a fresh code bound to the current state of u.
func (c *CodeIssuer) Issue(u *models.User) string {
	ts := c.now().Unix()
	return strconv.FormatInt(ts, 36) + "-" + hex.EncodeToString(c.mac(u, ts))
}

// Verify reports whether code was issued for u in its current state and
// has not expired. It never errors; every failure is simply false.
func (c *CodeIssuer) Verify(u *models.User, code string) bool {
	if u == nil {
		return false
	}
	tsPart, macPart, ok := strings.Cut(code, "-")
	if !ok || tsPart == "" || macPart == "" {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}
	given, err := hex.DecodeString(macPart)
	if err != nil {
		return false
	}

	issued := time.Unix(ts, 0)
	now := c.now()
	if issued.After(now.Add(maxClockSkew)) || now.Sub(issued) > c.ttl {
		return false
	}
	return hmac.Equal(given, c.mac(u, ts))
}

func (c *CodeIssuer) mac(u *models.User, ts int64) []byte {
	h := hmac.New(sha256.New, c.key)
	writeField(h, strconv.FormatInt(ts, 10))
	writeField(h, strconv.FormatInt(u.ID, 10))
	writeField(h, u.Username)
	writeField(h, u.Email)
	writeField(h, string(u.Role))
	writeField(h, strconv.FormatBool(u.Staff))
	writeField(h, u.FirstName)
	writeField(h, u.LastName)
	writeField(h, u.Bio)
	writeField(h, formatLogin(u.LastLoginAt))
	return h.Sum(nil)
}

// writeField length-prefixes v so field boundaries cannot shift.
func writeField(h hash.Hash, v string) {
	_, _ = fmt.Fprintf(h, "%d:%s|", len(v), v)
}

func formatLogin(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.UTC().UnixNano(), 10)
}
