package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
)

type fakeSessions struct {
	sess  auth.Session
	calls atomic.Int32
}

func (f *fakeSessions) Resolve(context.Context, *http.Request) auth.Session {
	f.calls.Add(1)
	return f.sess
}

type fakeUsers struct {
	users map[string]*user.User
	err   error
	calls atomic.Int32
}

func (f *fakeUsers) ByID(_ context.Context, id string) (*user.User, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

type fakeSpaces struct {
	dto   *space.DTO
	err   error
	calls atomic.Int32
}

func (f *fakeSpaces) CurrentForUser(context.Context, string) (*space.DTO, error) {
	f.calls.Add(1)
	return f.dto, f.err
}

func signedIn(id string, guest bool) auth.Session {
	return auth.Session{Kind: auth.KindPrimary, User: auth.SessionUser{ID: id, IsGuest: guest}}
}

func fixture(sess auth.Session) (*Loader, *fakeSessions, *fakeUsers, *fakeSpaces) {
	s := &fakeSessions{sess: sess}
	u := &fakeUsers{users: map[string]*user.User{
		"u1":    {ID: "u1", Email: "ada@example.com", Role: user.RoleUser},
		"admin": {ID: "admin", Email: "root@example.com", Role: user.RoleAdmin},
		"init":  {ID: "init", Email: "Boss@Example.com", Role: user.RoleUser},
	}}
	sp := &fakeSpaces{dto: &space.DTO{ID: "s1", OwnerID: "u1", Role: space.RoleAdmin}}
	return NewLoader(s, u, sp, "boss@example.com"), s, u, sp
}

func newReq() *http.Request { return httptest.NewRequest(http.MethodGet, "/", nil) }

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()

	l, _, _, _ := fixture(signedIn("u1", false))
	require.NotNil(t, l.CurrentUser(ctx, newReq()))

	l, _, users, _ := fixture(signedIn("g1", true))
	assert.Nil(t, l.CurrentUser(ctx, newReq()), "guest is not a user")
	assert.Equal(t, int32(0), users.calls.Load(), "guest must not hit the store")

	l, _, _, _ = fixture(signedIn("gone", false))
	assert.Nil(t, l.CurrentUser(ctx, newReq()), "drifted session")

	l, _, _, _ = fixture(auth.Session{})
	assert.Nil(t, l.CurrentUser(ctx, newReq()))
}

func TestCurrentUser_StoreErrorDegrades(t *testing.T) {
	l, _, users, _ := fixture(signedIn("u1", false))
	users.err = errors.New("db down")
	assert.Nil(t, l.CurrentUser(context.Background(), newReq()))
}

func TestRequireUser_MemoisedAcrossGoroutines(t *testing.T) {
	l, sessions, users, _ := fixture(signedIn("u1", false))
	q := l.ForRequest(newReq())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := q.RequireUser(context.Background())
			assert.Equal(t, "u1", u.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), sessions.calls.Load())
	assert.Equal(t, int32(1), users.calls.Load())
}

func TestRequireUser_NotSharedAcrossRequests(t *testing.T) {
	l, sessions, _, _ := fixture(signedIn("u1", false))
	l.ForRequest(newReq()).RequireUser(context.Background())
	l.ForRequest(newReq()).RequireUser(context.Background())
	assert.Equal(t, int32(2), sessions.calls.Load())
}

func TestRequireSpace(t *testing.T) {
	ctx := context.Background()

	l, _, _, spaces := fixture(signedIn("u1", false))
	q := l.ForRequest(newReq())
	d := q.RequireSpace(ctx)
	require.NotNil(t, d)
	assert.Equal(t, "s1", d.ID)
	q.RequireSpace(ctx)
	assert.Equal(t, int32(1), spaces.calls.Load())

	l, _, _, spaces = fixture(signedIn("g1", true))
	assert.Nil(t, l.ForRequest(newReq()).RequireSpace(ctx), "guest never yields a space")
	assert.Equal(t, int32(0), spaces.calls.Load())

	l, _, _, spaces = fixture(signedIn("u1", false))
	spaces.dto, spaces.err = nil, errors.New("timeout")
	assert.Nil(t, l.ForRequest(newReq()).RequireSpace(ctx))

	l, _, _, spaces = fixture(signedIn("u1", false))
	spaces.dto = nil
	assert.Nil(t, l.ForRequest(newReq()).RequireSpace(ctx), "no membership")
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		sess     auth.Session
		wantUser bool
		wantErr  error
		redirect bool
	}{
		{"no user", auth.Session{}, false, nil, false},
		{"admin", signedIn("admin", false), true, nil, false},
		{"initial admin", signedIn("init", false), false, nil, true},
		{"plain user", signedIn("u1", false), false, ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, _, _ := fixture(tt.sess)
			u, err := l.ForRequest(newReq()).RequireAdmin(ctx)
			assert.Equal(t, tt.wantUser, u != nil)

			var rd *Redirect
			switch {
			case tt.redirect:
				require.ErrorAs(t, err, &rd)
				assert.Equal(t, AdminSetupPath, rd.To)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteDenied(t *testing.T) {
	r := newReq()
	r = r.WithContext(locale.WithContext(r.Context(), "fr", "/admin"))

	rr := httptest.NewRecorder()
	WriteDenied(rr, r, &Redirect{To: AdminSetupPath})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/fr/admin-setup", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	WriteDenied(rr, r, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMiddleware_AttachesMemo(t *testing.T) {
	l, sessions, _, _ := fixture(signedIn("u1", false))
	var got *Request
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), newReq())

	require.NotNil(t, got)
	assert.Equal(t, int32(0), sessions.calls.Load(), "middleware must not resolve eagerly")
	assert.Nil(t, FromContext(context.Background()))
}
