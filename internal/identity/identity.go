// internal/identity/identity.go
//
// Per-request identity facts: current user, current space, admin gate.
//
// Context
// -------
// Pages and API handlers ask the same questions many times per request
// ("who is this?", "which space?").  Request memoises each answer with
// sync.Once so concurrent readers inside one request share one lookup.  The
// memo lives in the request context only and dies with the request.
//
// Every failure degrades to "absent": a store error is logged and counted,
// and the caller sees nil.  Handlers render a reduced view instead of
// failing.  RequireAdmin is the one operation that reports a navigational
// outcome (redirect or not-found).
//
// Workflow
// --------
//   1. router.Use(identity.Middleware(loader)) attaches *Request.
//   2. Handlers call identity.FromContext(ctx).RequireUser(ctx).
//
// Notes
// -----
// • Guests never yield a user, and so never yield a space.
// • Oxford commas, two spaces after periods.

package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/metrics"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
)

// SessionResolver is satisfied by *auth.Resolver.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request) auth.Session
}

// UserReader is satisfied by *user.Store.
type UserReader interface {
	ByID(ctx context.Context, id string) (*user.User, error)
}

// SpaceReader is satisfied by *space.Store.
type SpaceReader interface {
	CurrentForUser(ctx context.Context, userID string) (*space.DTO, error)
}

// Loader holds the collaborators shared by every request.
type Loader struct {
	sessions     SessionResolver
	users        UserReader
	spaces       SpaceReader
	initialAdmin string
}

// NewLoader returns a Loader.  initialAdmin is the email allowed into the
// admin-setup flow; empty disables it.
func NewLoader(sessions SessionResolver, users UserReader, spaces SpaceReader, initialAdmin string) *Loader {
	return &Loader{
		sessions:     sessions,
		users:        users,
		spaces:       spaces,
		initialAdmin: strings.ToLower(strings.TrimSpace(initialAdmin)),
	}
}

// CurrentUser resolves the session and loads its user without memoising.
func (l *Loader) CurrentUser(ctx context.Context, r *http.Request) *user.User {
	return l.userFor(ctx, l.sessions.Resolve(ctx, r))
}

func (l *Loader) userFor(ctx context.Context, s auth.Session) *user.User {
	if !s.Valid() || s.User.IsGuest {
		return nil
	}
	u, err := l.users.ByID(ctx, s.User.ID)
	if err != nil {
		zap.L().Warn("identity user load failed",
			zap.String("user_id", s.User.ID),
			zap.Error(err))
		metrics.IdentityDegraded.WithLabelValues("user").Inc()
		return nil
	}
	return u
}

// IsInitialAdmin reports whether email matches the configured initial admin.
func (l *Loader) IsInitialAdmin(email string) bool {
	return l.initialAdmin != "" && strings.EqualFold(strings.TrimSpace(email), l.initialAdmin)
}

// ForRequest returns a fresh memo bound to r.
func (l *Loader) ForRequest(r *http.Request) *Request {
	return &Request{loader: l, r: r}
}

// Request memoises identity facts for one HTTP request.
type Request struct {
	loader *Loader
	r      *http.Request

	sessOnce sync.Once
	sess     auth.Session

	userOnce sync.Once
	user     *user.User

	spaceOnce sync.Once
	space     *space.DTO
}

// Session returns the resolved session.
func (q *Request) Session(ctx context.Context) auth.Session {
	q.sessOnce.Do(func() {
		q.sess = q.loader.sessions.Resolve(ctx, q.r)
	})
	return q.sess
}

// RequireUser returns the signed-in, non-guest user or nil.  Despite the
// name it never fails; callers render an anonymous view on nil.
func (q *Request) RequireUser(ctx context.Context) *user.User {
	q.userOnce.Do(func() {
		q.user = q.loader.userFor(ctx, q.Session(ctx))
	})
	return q.user
}

// RequireSpace returns the user's most recently selected space or nil.
func (q *Request) RequireSpace(ctx context.Context) *space.DTO {
	q.spaceOnce.Do(func() {
		u := q.RequireUser(ctx)
		if u == nil {
			return
		}
		d, err := q.loader.spaces.CurrentForUser(ctx, u.ID)
		if err != nil {
			zap.L().Warn("identity space load failed",
				zap.String("user_id", u.ID),
				zap.Error(err))
			metrics.IdentityDegraded.WithLabelValues("space").Inc()
			return
		}
		q.space = d
	})
	return q.space
}

// RequireAdmin returns (nil, nil) without a user and the user when it holds
// the admin role.  Otherwise it returns *Redirect to the setup flow for the
// initial admin, or ErrNotFound.
func (q *Request) RequireAdmin(ctx context.Context) (*user.User, error) {
	u := q.RequireUser(ctx)
	if u == nil {
		return nil, nil
	}
	if u.IsAdmin() {
		return u, nil
	}
	if q.loader.IsInitialAdmin(u.Email) {
		return nil, &Redirect{To: AdminSetupPath}
	}
	return nil, ErrNotFound
}

//
// context plumbing
//

type ctxKey struct{}

// Middleware attaches a fresh *Request to every request.  No I/O happens
// until a handler asks.
func Middleware(l *Loader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := l.ForRequest(r)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, q)))
		})
	}
}

// FromContext returns the memo attached by Middleware, or nil.
func FromContext(ctx context.Context) *Request {
	q, _ := ctx.Value(ctxKey{}).(*Request)
	return q
}
