package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/config"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/password"
	"github.com/yanizio/pollspace/internal/space"
)

const cookieName = "pollspace.session_token"

type harness struct {
	router chi.Router
	mock   sqlmock.Sqlmock
	csrf   *csrf.Signer
}

func newHarness(t *testing.T, features config.Features) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "mysql")

	lazy := auth.NewLazy(func() (*auth.Store, error) {
		return auth.NewStore(sdb, auth.StoreOptions{Secret: "s3cret", CookieName: cookieName, TTL: time.Hour, DemoMode: features.DemoMode})
	})
	cfg := &config.Config{Features: features}
	cfg.Demo = config.Demo{Email: "demo@example.com", Password: "demo-pass-123"}

	signer := csrf.New("")
	c := &Component{}
	require.NoError(t, c.Init(component.Deps{
		DB:       sdb,
		Config:   cfg,
		Sessions: lazy,
		Resolver: auth.NewResolver(lazy, nil, sdb),
		Spaces:   space.NewStore(sdb),
		Settings: feature.NewSettings(sdb),
		Flags:    feature.FromConfig(features),
		CSRF:     signer,
		Password: password.Policy{DemoMode: features.DemoMode},
	}))

	r := chi.NewRouter()
	r.Route("/{locale}", c.Routes)
	r.Route("/api", c.APIRoutes)
	return &harness{router: r, mock: mock, csrf: signer}
}

func (h *harness) do(r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, r)
	return rr
}

func (h *harness) postLogin(t *testing.T, email, pass string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := h.csrf.Generate()
	require.NoError(t, err)
	form := url.Values{"email": {email}, "password": {pass}, csrf.FieldName: {tok}}
	r := httptest.NewRequest(http.MethodPost, "/en/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(r)
}

func expectCredential(mock sqlmock.Sqlmock, email, password string, verified bool) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	mock.ExpectQuery(regexp.QuoteMeta("FROM   user u")).
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email_verified", "password"}).
			AddRow("u1", verified, string(hash)))
}

func TestLoginGET_DemoPanel(t *testing.T) {
	h := newHarness(t, config.Features{DemoMode: true, Registration: true})

	rr := h.do(httptest.NewRequest(http.MethodGet, "/en/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "demo@example.com")
	assert.Contains(t, body, `name="csrf_token"`)
	assert.Contains(t, body, `action="/en/login"`)
	assert.Contains(t, body, `href="/en/register"`)
	assert.NotContains(t, body, "/api/auth/sso/")
}

func TestLoginGET_RegisteredNotice(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/en/login?registered=1", nil))
	assert.Contains(t, rr.Body.String(), "Account created.")
	assert.NotContains(t, rr.Body.String(), `href="/en/register"`)
}

func TestLoginGET_NoEmailLogin(t *testing.T) {
	h := newHarness(t, config.Features{})

	rr := h.do(httptest.NewRequest(http.MethodGet, "/fr/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `type="password"`)
	assert.NotContains(t, rr.Body.String(), "demo@example.com")
}

func TestLoginPOST_Success(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	expectCredential(h.mock, "ada@example.com", "correct horse", true)
	h.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rr := h.postLogin(t, "Ada@Example.com", "correct horse")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/en", rr.Header().Get("Location"))

	var found bool
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == cookieName && ck.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "session cookie not set")
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestLoginPOST_BadPassword(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	expectCredential(h.mock, "ada@example.com", "correct horse", true)

	rr := h.postLogin(t, "ada@example.com", "wrong")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Incorrect email or password.")
	assert.Contains(t, rr.Body.String(), `value="ada@example.com"`)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestLoginPOST_Unverified(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	expectCredential(h.mock, "ada@example.com", "correct horse", false)

	rr := h.postLogin(t, "ada@example.com", "correct horse")
	assert.Contains(t, rr.Body.String(), "verify your email")
}

func TestLoginPOST_DisabledIsNotFound(t *testing.T) {
	h := newHarness(t, config.Features{})
	rr := h.postLogin(t, "ada@example.com", "x")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoginPOST_MissingCSRF(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	r := httptest.NewRequest(http.MethodPost, "/en/login", strings.NewReader("email=a&password=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusForbidden, h.do(r).Code)
}

func TestLogout_ClearsAndRedirects(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true})
	tok, _ := h.csrf.Generate()
	r := httptest.NewRequest(http.MethodPost, "/de/logout",
		strings.NewReader(url.Values{csrf.FieldName: {tok}}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := h.do(r)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/de/login", rr.Header().Get("Location"))

	var cleared bool
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == cookieName && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie not cleared")
}

func TestSessionAPI_None(t *testing.T) {
	h := newHarness(t, config.Features{})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", strings.TrimSpace(rr.Body.String()))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestSignOutAPI(t *testing.T) {
	h := newHarness(t, config.Features{})
	rr := h.do(httptest.NewRequest(http.MethodPost, "/api/auth/sign-out", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
