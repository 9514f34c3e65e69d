// internal/user/repository.go
//
// Read and role-update helpers for the `user` and `account` tables.
//
// Context
// -------
// Identity resolution needs exactly one user lookup per request.  The admin
// setup flow needs to promote a user and to know whether the instance has
// any admin yet.  Everything else about users lives outside this service.
//
// Notes
// -----
// • ByID and ByEmail return (nil, nil) when no row matches; callers treat
//   that as "absent", never as an error.
// • Oxford commas, two spaces after periods.

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const columns = `id, name, email, email_verified, image, role, time_zone,
               locale, time_format, week_start, is_anonymous, created_at`

// Store wraps the shared *sqlx.DB.
type Store struct {
	db *sqlx.DB
}

// NewStore returns a Store bound to db.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// ByID fetches a user by primary key.
func (s *Store) ByID(ctx context.Context, id string) (*User, error) {
	const q = `
        SELECT ` + columns + `
        FROM   user
        WHERE  id = ?
        LIMIT  1`
	return s.get(ctx, q, id)
}

// ByEmail fetches a user by email, case-insensitively.
func (s *Store) ByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
        SELECT ` + columns + `
        FROM   user
        WHERE  email = ?
        LIMIT  1`
	return s.get(ctx, q, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) get(ctx context.Context, q string, arg any) (*User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("user: query: %w", err)
	}
	return &u, nil
}

// SetRole updates user.role.
func (s *Store) SetRole(ctx context.Context, id, role string) error {
	const q = `UPDATE user SET role = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, role, id)
	if err != nil {
		return fmt.Errorf("user: set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user: set role: %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// AdminCount returns how many users hold the admin role.
func (s *Store) AdminCount(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM user WHERE role = ?`
	var n int
	if err := s.db.GetContext(ctx, &n, q, RoleAdmin); err != nil {
		return 0, fmt.Errorf("user: admin count: %w", err)
	}
	return n, nil
}

// HasPassword reports whether the user has a credential account.
func (s *Store) HasPassword(ctx context.Context, id string) (bool, error) {
	const q = `
        SELECT COUNT(*)
        FROM   account
        WHERE  user_id = ?
          AND  provider = 'credential'
          AND  password IS NOT NULL`
	var n int
	if err := s.db.GetContext(ctx, &n, q, id); err != nil {
		return false, fmt.Errorf("user: has password: %w", err)
	}
	return n > 0, nil
}
