// internal/auth/resolver.go
//
// Session resolution across the primary and legacy mechanisms.
//
// Context
// -------
// Page rendering must survive an identity outage.  Resolve therefore never
// returns an error: a failing mechanism (unavailable, misconfigured, query
// error, or panic) is logged, counted, and treated as "no session" before
// the next mechanism is tried.
//
//	NoSession → primary → PrimarySession
//	                    ↘ legacy → LegacySession
//	                             ↘ NoSession
//
// Notes
// -----
// • Legacy may be nil when the migration window has closed.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/metrics"
)

// Resolver combines both mechanisms.
type Resolver struct {
	primary Provider
	legacy  Provider
	db      *sqlx.DB
}

// NewResolver returns a Resolver.  legacy may be nil.  db is used for the
// guest merge in AfterSignIn and may be nil when legacy is nil.
func NewResolver(primary, legacy Provider, db *sqlx.DB) *Resolver {
	return &Resolver{primary: primary, legacy: legacy, db: db}
}

// Resolve returns the caller's session, or a zero Session.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request) Session {
	if s := rs.try(ctx, r, KindPrimary, rs.primary); s != nil {
		return *s
	}
	if s := rs.try(ctx, r, KindLegacy, rs.legacy); s != nil {
		return *s
	}
	metrics.SessionResolution.WithLabelValues(KindNone.String()).Inc()
	return Session{}
}

func (rs *Resolver) try(ctx context.Context, r *http.Request, kind Kind, p Provider) (out *Session) {
	if p == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Warn("session lookup panic",
				zap.Stringer("mechanism", kind),
				zap.Any("panic", rec))
			metrics.IdentityDegraded.WithLabelValues(kind.String()).Inc()
			out = nil
		}
	}()

	s, err := p.Session(ctx, r)
	if err != nil {
		zap.L().Warn("session lookup failed",
			zap.Stringer("mechanism", kind),
			zap.Error(err))
		metrics.IdentityDegraded.WithLabelValues(kind.String()).Inc()
		return nil
	}
	if s == nil {
		return nil
	}
	s.Kind = kind
	if !s.Valid() {
		return nil
	}
	metrics.SessionResolution.WithLabelValues(kind.String()).Inc()
	return s
}

// AfterSignIn runs once a primary session exists for userID.  A legacy
// guest carried by the same request is merged into the user, and the legacy
// session is always signed out.
func (rs *Resolver) AfterSignIn(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) error {
	if rs.legacy == nil {
		return nil
	}
	defer rs.legacy.SignOut(ctx, w, r) //nolint:errcheck

	ls, err := rs.legacy.Session(ctx, r)
	if err != nil || ls == nil || !ls.User.IsGuest {
		return nil
	}
	if rs.db == nil {
		return errors.New("auth: after sign-in: no database for guest merge")
	}
	if err := MergeGuestIntoUser(ctx, rs.db, userID, ls.User.ID); err != nil {
		return err
	}
	return nil
}

// SignOut ends both sessions.  Cookies are always cleared; a primary
// failure is returned after the legacy cookies are gone.
func (rs *Resolver) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var errs []error
	if rs.primary != nil {
		if err := rs.primary.SignOut(ctx, w, r); err != nil {
			errs = append(errs, fmt.Errorf("primary: %w", err))
		}
	}
	if rs.legacy != nil {
		if err := rs.legacy.SignOut(ctx, w, r); err != nil {
			errs = append(errs, fmt.Errorf("legacy: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CookieNames lists every cookie that may carry a session, for the edge
// middleware's presence hint.
func CookieNames(primaryCookie string, legacyEnabled bool) []string {
	names := []string{primaryCookie}
	if legacyEnabled {
		names = append(names, LegacyCookieNames...)
	}
	return names
}
