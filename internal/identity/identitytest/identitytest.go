// Package identitytest builds identity loaders backed by in-memory fakes
// for handler tests.
package identitytest

import (
	"context"
	"net/http"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
)

// Fixture describes the caller of every request served by the loader.
type Fixture struct {
	User         *user.User // nil means anonymous
	Guest        bool
	Space        *space.DTO
	SpaceErr     error
	InitialAdmin string
}

type sessions struct{ f Fixture }

func (s sessions) Resolve(context.Context, *http.Request) auth.Session {
	if s.f.User == nil {
		return auth.Session{}
	}
	return auth.Session{
		Kind: auth.KindPrimary,
		User: auth.SessionUser{ID: s.f.User.ID, Email: s.f.User.Email, Name: s.f.User.Name, IsGuest: s.f.Guest},
	}
}

type users struct{ f Fixture }

func (u users) ByID(_ context.Context, id string) (*user.User, error) {
	if u.f.User != nil && u.f.User.ID == id {
		return u.f.User, nil
	}
	return nil, nil
}

type spaces struct{ f Fixture }

func (s spaces) CurrentForUser(context.Context, string) (*space.DTO, error) {
	return s.f.Space, s.f.SpaceErr
}

// Loader returns an identity.Loader that answers from f.
func Loader(f Fixture) *identity.Loader {
	return identity.NewLoader(sessions{f}, users{f}, spaces{f}, f.InitialAdmin)
}

// Middleware is identity.Middleware(Loader(f)).
func Middleware(f Fixture) func(http.Handler) http.Handler {
	return identity.Middleware(Loader(f))
}
