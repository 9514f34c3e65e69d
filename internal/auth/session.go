// internal/auth/session.go
//
// Normalised session shape shared by both session mechanisms.
//
// Context
// -------
// Two cookie-based mechanisms coexist during the migration window:
//
//   • primary – opaque token, session row in MySQL (store.go),
//   • legacy  – self-contained HS256 JWT (legacy.go).
//
// Both map their user fields into SessionUser so callers never care which
// one answered.  Kind records the source; KindNone is the zero value.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Kind tags where a Session came from.
type Kind int

const (
	KindNone Kind = iota
	KindPrimary
	KindLegacy
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// SessionUser is the identity carried by a session.
type SessionUser struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	IsGuest bool   `json:"isGuest"`
	Image   string `json:"image,omitempty"`
}

// Session is the resolved identity for one request.
type Session struct {
	Kind    Kind        `json:"-"`
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// Valid reports whether s carries a user.
func (s Session) Valid() bool { return s.Kind != KindNone && s.User.ID != "" }

// Legacy reports whether s was produced by the legacy mechanism.
func (s Session) Legacy() bool { return s.Kind == KindLegacy }

// Provider is one session mechanism.  Session returns (nil, nil) when the
// request carries no session for this mechanism.
type Provider interface {
	Session(ctx context.Context, r *http.Request) (*Session, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Sentinel errors.
var (
	ErrUnavailable        = errors.New("auth: session mechanism unavailable")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrEmailNotVerified   = errors.New("auth: email not verified")
	ErrEmailTaken         = errors.New("auth: email already registered")
)
