// internal/auth/store.go
//
// Primary session mechanism: signed token cookie plus `session` row.
//
// Context
// -------
// Sign-in creates a row in `session` keyed by a random token and sets the
// cookie `<token>.<hmac>`.  Each request verifies the signature locally,
// then joins `session` and `user` to load the identity.  Expired rows are
// ignored; cleanup of old rows happens outside this service.
//
// Workflow
// --------
//   1. VerifyPassword(ctx, email, pw) → user id (credential provider only).
//   2. Create(ctx, w, r, userID)      → row + cookie (IP and UA recorded).
//   3. Session(ctx, r)                → *Session or nil.
//   4. SignOut(ctx, w, r)             → row deleted, cookie cleared.
//
// Notes
// -----
// • Anonymous users (`user.is_anonymous`) map to IsGuest sessions.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/pollspace/internal/requestinfo"
	"github.com/yanizio/pollspace/internal/session"
)

// StoreOptions configures the primary mechanism.
type StoreOptions struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	// DemoMode lets unverified emails sign in with a password.
	DemoMode bool
}

// Store is the primary session mechanism.
type Store struct {
	db     *sqlx.DB
	secret []byte
	cookie string
	ttl    time.Duration
	demo   bool
	now    func() time.Time
}

// NewStore validates opts.  A missing secret is a configuration error; the
// caller wraps construction in Lazy so the error surfaces as
// ErrUnavailable at request time instead of at boot.
func NewStore(db *sqlx.DB, opts StoreOptions) (*Store, error) {
	if db == nil {
		return nil, errors.New("auth: store: nil db")
	}
	if opts.Secret == "" {
		return nil, errors.New("auth: store: empty secret")
	}
	if opts.CookieName == "" {
		return nil, errors.New("auth: store: empty cookie name")
	}
	if opts.TTL <= 0 {
		opts.TTL = 60 * 24 * time.Hour
	}
	return &Store{
		db:     db,
		secret: []byte(opts.Secret),
		cookie: opts.CookieName,
		ttl:    opts.TTL,
		demo:   opts.DemoMode,
		now:    time.Now,
	}, nil
}

// CookieName returns the session cookie name (used for the edge hint).
func (s *Store) CookieName() string { return s.cookie }

type sessionRow struct {
	ExpiresAt   time.Time `db:"expires_at"`
	UserID      string    `db:"id"`
	Email       string    `db:"email"`
	Name        string    `db:"name"`
	Image       *string   `db:"image"`
	IsAnonymous bool      `db:"is_anonymous"`
}

// Session implements Provider.
func (s *Store) Session(ctx context.Context, r *http.Request) (*Session, error) {
	raw, ok := session.Read(r, s.cookie)
	if !ok {
		return nil, nil
	}
	token, ok := session.Verify(s.secret, raw)
	if !ok {
		return nil, nil
	}

	const q = `
        SELECT s.expires_at, u.id, u.email, u.name, u.image, u.is_anonymous
        FROM   session s
        JOIN   user u ON u.id = s.user_id
        WHERE  s.token = ?
          AND  s.expires_at > ?
        LIMIT  1`
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, q, token, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth: session lookup: %w", err)
	}

	u := SessionUser{
		ID:      row.UserID,
		Email:   row.Email,
		Name:    row.Name,
		IsGuest: row.IsAnonymous,
	}
	if row.Image != nil {
		u.Image = *row.Image
	}
	return &Session{Kind: KindPrimary, User: u, Expires: row.ExpiresAt}, nil
}

// Create inserts a session row for userID and sets the cookie.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) (*Session, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")

	info := requestinfo.FromContext(r.Context())
	var ua string
	if info != nil {
		ua = info.UA.Raw
	}

	const q = `
        INSERT INTO session (id, token, user_id, expires_at, ip_address, user_agent, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		uuid.NewString(), token, userID, exp, info.IPString(), ua, now); err != nil {
		return nil, fmt.Errorf("auth: create session: %w", err)
	}

	session.Set(w, s.cookie, session.Sign(s.secret, token), exp, session.Secure(r))
	return &Session{Kind: KindPrimary, User: SessionUser{ID: userID}, Expires: exp}, nil
}

// SignOut implements Provider.  Missing or forged cookies are cleared
// without touching the database.
func (s *Store) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer session.Clear(w, s.cookie)

	raw, ok := session.Read(r, s.cookie)
	if !ok {
		return nil
	}
	token, ok := session.Verify(s.secret, raw)
	if !ok {
		return nil
	}
	const q = `DELETE FROM session WHERE token = ?`
	if _, err := s.db.ExecContext(ctx, q, token); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// VerifyPassword checks credentials against the `credential` account and
// returns the user id.
func (s *Store) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	const q = `
        SELECT u.id, u.email_verified, a.password
        FROM   user u
        JOIN   account a ON a.user_id = u.id AND a.provider = 'credential'
        WHERE  u.email = ?
        LIMIT  1`
	var row struct {
		ID       string  `db:"id"`
		Verified bool    `db:"email_verified"`
		Hash     *string `db:"password"`
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.GetContext(ctx, &row, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: verify password: %w", err)
	}
	if row.Hash == nil || bcrypt.CompareHashAndPassword([]byte(*row.Hash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if !row.Verified && !s.demo {
		return "", ErrEmailNotVerified
	}
	return row.ID, nil
}

// SetPassword replaces the credential hash for userID.
func (s *Store) SetPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	const q = `UPDATE account SET password = ? WHERE user_id = ? AND provider = 'credential'`
	res, err := s.db.ExecContext(ctx, q, string(hash), userID)
	if err != nil {
		return fmt.Errorf("auth: set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("auth: set password: %s: %w", userID, sql.ErrNoRows)
	}
	return nil
}
