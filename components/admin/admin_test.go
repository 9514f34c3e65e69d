package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/identity/identitytest"
	"github.com/yanizio/pollspace/internal/user"
)

type fakeRoles struct {
	admins   int
	promoted []string
}

func (f *fakeRoles) SetRole(_ context.Context, id, role string) error {
	if role == user.RoleAdmin {
		f.promoted = append(f.promoted, id)
	}
	return nil
}

func (f *fakeRoles) AdminCount(context.Context) (int, error) { return f.admins, nil }

type fakeSettings struct{ disabled bool }

func (f fakeSettings) RegistrationDisabled(context.Context) (bool, error) { return f.disabled, nil }

const initial = "boss@example.com"

type harness struct {
	router chi.Router
	roles  *fakeRoles
	signer *csrf.Signer
}

func newHarness(fx identitytest.Fixture) *harness {
	fx.InitialAdmin = initial
	loader := identitytest.Loader(fx)
	h := &harness{roles: &fakeRoles{admins: 2}, signer: csrf.New("")}
	c := &Component{
		roles:        h.roles,
		settings:     fakeSettings{},
		flags:        feature.Flags{EmailLogin: true, Registration: true},
		initialAdmin: loader.IsInitialAdmin,
		csrf:         h.signer,
	}
	r := chi.NewRouter()
	r.Use(identitytest.Middleware(fx))
	r.Route("/{locale}", c.Routes)
	h.router = r
	return h
}

func (h *harness) do(r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, r)
	return rr
}

func (h *harness) postSetup(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := h.signer.Generate()
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/en/admin-setup",
		strings.NewReader(url.Values{csrf.FieldName: {tok}}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(r)
}

var (
	root = &user.User{ID: "a1", Name: "Root", Email: "root@example.com", Role: user.RoleAdmin}
	boss = &user.User{ID: "b1", Name: "Boss", Email: "Boss@Example.com", Role: user.RoleUser}
	ada  = &user.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: user.RoleUser}
)

func TestAdmin_Outcomes(t *testing.T) {
	cases := []struct {
		name     string
		fx       identitytest.Fixture
		status   int
		location string
	}{
		{"anonymous", identitytest.Fixture{}, http.StatusSeeOther, "/en/login"},
		{"guest", identitytest.Fixture{User: ada, Guest: true}, http.StatusSeeOther, "/en/login"},
		{"admin", identitytest.Fixture{User: root}, http.StatusOK, ""},
		{"initial admin", identitytest.Fixture{User: boss}, http.StatusSeeOther, "/en/admin-setup"},
		{"plain user", identitytest.Fixture{User: ada}, http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := newHarness(tc.fx).do(httptest.NewRequest(http.MethodGet, "/en/admin", nil))
			require.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.location, rr.Header().Get("Location"))
			if tc.status == http.StatusNotFound {
				assert.NotContains(t, rr.Body.String(), ada.Email)
			}
		})
	}
}

func TestAdmin_Overview(t *testing.T) {
	rr := newHarness(identitytest.Fixture{User: root}).do(httptest.NewRequest(http.MethodGet, "/en/admin", nil))
	body := rr.Body.String()
	assert.Contains(t, body, "<dt>Administrators</dt><dd>2</dd>")
	assert.Contains(t, body, "<dt>Registration</dt><dd>open</dd>")
}

func TestSetup_GET(t *testing.T) {
	rr := newHarness(identitytest.Fixture{User: boss}).do(httptest.NewRequest(http.MethodGet, "/en/admin-setup", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Grant admin access")

	for _, fx := range []identitytest.Fixture{{}, {User: ada}, {User: root}} {
		rr := newHarness(fx).do(httptest.NewRequest(http.MethodGet, "/en/admin-setup", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}
}

func TestSetup_POSTPromotes(t *testing.T) {
	h := newHarness(identitytest.Fixture{User: boss})
	rr := h.postSetup(t)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/en/admin", rr.Header().Get("Location"))
	assert.Equal(t, []string{"b1"}, h.roles.promoted)
}

func TestSetup_POSTRejectsOthers(t *testing.T) {
	h := newHarness(identitytest.Fixture{User: ada})
	rr := h.postSetup(t)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, h.roles.promoted)
}
