// internal/auth/legacy.go
//
// Legacy session mechanism (HS256 JWT cookie).
//
// Context
// -------
// Sessions issued before the migration live entirely in a signed JWT cookie.
// They are still honoured so nobody is logged out mid-migration, and a guest
// identity carried this way is merged into the real account on the next
// primary sign-in (see Resolver.AfterSignIn).  New legacy sessions are only
// issued by tests.
//
// Notes
// -----
// • Cookie is `__Secure-next-auth.session-token` over HTTPS and
//   `next-auth.session-token` otherwise; both are read and both are cleared.
// • Expired or tampered tokens count as "no session".  Only structural
//   problems (no subject) are reported as errors.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanizio/pollspace/internal/session"
)

// LegacyCookieNames lists the cookies the legacy mechanism may use.
var LegacyCookieNames = []string{
	"__Secure-next-auth.session-token",
	"next-auth.session-token",
}

type legacyClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	IsGuest bool   `json:"isGuest,omitempty"`
	jwt.RegisteredClaims
}

// LegacyJWT reads and clears legacy session cookies.
type LegacyJWT struct {
	secret []byte
	now    func() time.Time
}

// NewLegacyJWT returns the legacy mechanism keyed by secret.
func NewLegacyJWT(secret string) (*LegacyJWT, error) {
	if secret == "" {
		return nil, errors.New("auth: legacy: empty secret")
	}
	return &LegacyJWT{secret: []byte(secret), now: time.Now}, nil
}

// Session implements Provider.
func (l *LegacyJWT) Session(_ context.Context, r *http.Request) (*Session, error) {
	var raw string
	for _, name := range LegacyCookieNames {
		if v, ok := session.Read(r, name); ok {
			raw = v
			break
		}
	}
	if raw == "" {
		return nil, nil
	}

	var claims legacyClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return l.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return nil, nil
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth: legacy token without subject")
	}

	return &Session{
		Kind: KindLegacy,
		User: SessionUser{
			ID:      claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			IsGuest: claims.IsGuest,
			Image:   claims.Picture,
		},
		Expires: claims.ExpiresAt.Time,
	}, nil
}

// SignOut implements Provider by clearing every legacy cookie.
func (l *LegacyJWT) SignOut(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	for _, name := range LegacyCookieNames {
		session.Clear(w, name)
	}
	return nil
}

// Issue signs a legacy token for u.
func (l *LegacyJWT) Issue(u SessionUser, ttl time.Duration) (string, error) {
	now := l.now()
	claims := legacyClaims{
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Image,
		IsGuest: u.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
}
