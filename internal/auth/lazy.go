// internal/auth/lazy.go
//
// Deferred construction of a session mechanism.
//
// Context
// -------
// The primary mechanism needs a signing secret that may arrive late (Vault)
// or be missing in a half-configured deployment.  Building it at boot would
// turn a misconfiguration into a crash loop.  Lazy builds it on first use,
// remembers the outcome, and reports a failed build as ErrUnavailable on
// every call, which the Resolver degrades to "no session".

package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Lazy wraps a Provider constructor.  It is itself a Provider.
type Lazy[T Provider] struct {
	once  sync.Once
	build func() (T, error)
	val   T
	err   error
}

// NewLazy returns a Lazy that calls build at most once.
func NewLazy[T Provider](build func() (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

// Get returns the built value, building it on first call.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				l.err = fmt.Errorf("%w: panic during construction: %v", ErrUnavailable, rec)
			}
			if l.err != nil {
				zap.L().Warn("session mechanism unavailable", zap.Error(l.err))
			}
		}()
		v, err := l.build()
		if err != nil {
			l.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}
		l.val = v
	})
	return l.val, l.err
}

// Session implements Provider.
func (l *Lazy[T]) Session(ctx context.Context, r *http.Request) (*Session, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.Session(ctx, r)
}

// SignOut implements Provider.
func (l *Lazy[T]) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := l.Get()
	if err != nil {
		return err
	}
	return p.SignOut(ctx, w, r)
}
