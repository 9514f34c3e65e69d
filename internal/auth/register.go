// internal/auth/register.go
//
// Email/password sign-up for the credential provider.
//
// Context
// -------
// A registration writes the `user` row and its `credential` account in one
// transaction so a half-created user can never sign in.  Demo deployments
// mark the email verified immediately; elsewhere verification is delivered
// by the external mail flow and VerifyPassword refuses the account until
// then.
//
// Notes
// -----
// • The email unique index is the source of truth for duplicates; MySQL
//   error 1062 maps to ErrEmailTaken.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Registration is a new credential user.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Register creates the user and credential account and returns the user id.
func (s *Store) Register(ctx context.Context, reg Registration) (string, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("auth: register: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	userID := uuid.NewString()
	const qUser = `
        INSERT INTO user (id, name, email, email_verified, role, is_anonymous, created_at)
        VALUES (?, ?, ?, ?, 'user', FALSE, ?)`
	if _, err := tx.ExecContext(ctx, qUser,
		userID, strings.TrimSpace(reg.Name), email, s.demo, s.now().UTC()); err != nil {
		if isDuplicate(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("auth: register: user: %w", err)
	}

	const qAccount = `
        INSERT INTO account (id, user_id, provider, password)
        VALUES (?, ?, 'credential', ?)`
	if _, err := tx.ExecContext(ctx, qAccount, uuid.NewString(), userID, string(hash)); err != nil {
		return "", fmt.Errorf("auth: register: account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("auth: register: commit: %w", err)
	}
	return userID, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
