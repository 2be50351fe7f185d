// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/critique/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, bio, role, is_staff, joined_at, last_login_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u               models.User
		role            string
		joined, updated string
		lastLogin       sql.NullString
		staff           int
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio,
		&role, &staff, &joined, &lastLogin, &updated); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Staff = staff != 0

	var err error
	if u.JoinedAt, err = parseTime(joined); err != nil {
		return nil, fmt.Errorf("parse joined_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if u.LastLoginAt, err = parseNullTime(lastLogin); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}
	return &u, nil
}

// CreateUser inserts u and sets its ID and timestamps. A taken username or
// email yields models.ErrConflict.
func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := time.Now().UTC()
	if u.JoinedAt.IsZero() {
		u.JoinedAt = now
	}
	u.UpdatedAt = now

	res, err := q.exec(ctx, `
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_staff, joined_at, last_login_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, string(u.Role), boolInt(u.Staff),
		formatTime(u.JoinedAt), nullTime(u.LastLoginAt), formatTime(u.UpdatedAt))
	if err != nil {
		return translate(err, "create user")
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("create user: last insert id: %w", err)
	}
	return nil
}

// GetUserByID returns the user or models.ErrNotFound.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return u, nil
}

// GetUserByUsername returns the user or models.ErrNotFound.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return u, nil
}

// GetUserByEmail returns the user or models.ErrNotFound.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return u, nil
}

// ListUsers returns users ordered by username. Search matches a username
// substring.
func (q *Queries) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		query += ` WHERE username LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(s)+"%")
	}
	query += ` ORDER BY username`
	page, pageArgs := pageClause(f.Page)
	query += page
	args = append(args, pageArgs...)

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list users")
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate(err, "scan user")
		}
		out = append(out, *u)
	}
	return out, translate(rows.Err(), "list users")
}

// UpdateUser writes every mutable profile field of u and bumps UpdatedAt.
func (q *Queries) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := q.exec(ctx, `
		UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?, bio = ?,
			role = ?, is_staff = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, string(u.Role), boolInt(u.Staff),
		formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return translate(err, "update user")
	}
	return mustAffect(res, "update user")
}

// TouchLastLogin records a successful login.
func (q *Queries) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := q.exec(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return translate(err, "touch last login")
	}
	return mustAffect(res, "touch last login")
}

// SwapLastLogin sets last_login_at to at only if it still equals prev
// (nil meaning never logged in). It reports whether the row changed.
func (q *Queries) SwapLastLogin(ctx context.Context, id int64, prev *time.Time, at time.Time) (bool, error) {
	res, err := q.exec(ctx, `UPDATE users SET last_login_at = ? WHERE id = ? AND last_login_at IS ?`,
		formatTime(at), id, nullTime(prev))
	if err != nil {
		return false, translate(err, "swap last login")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap last login: %w", err)
	}
	return n == 1, nil
}

// DeleteUser removes the user. Comments and reviews cascade; callers that
// must keep rating aggregates consistent remove reviews first.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	return mustAffect(res, "delete user")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
