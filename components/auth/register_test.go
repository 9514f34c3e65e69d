package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/pollspace/internal/config"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/space"
)

const strongPassword = "Plum-Tree-Harbor-42"

func (h *harness) postRegister(t *testing.T, name, email, pass, confirm string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := h.csrf.Generate()
	require.NoError(t, err)
	form := url.Values{
		csrf.FieldName:     {tok},
		"name":             {name},
		"email":            {email},
		"password":         {pass},
		"confirm_password": {confirm},
	}
	r := httptest.NewRequest(http.MethodPost, "/en/register", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(r)
}

func expectRegister(mock sqlmock.Sqlmock, verified bool) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user")).
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", verified, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO account")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestRegisterGET_Open(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true, Registration: true})
	rr := h.do(httptest.NewRequest(http.MethodGet, "/en/register", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/en/register"`)
	assert.Contains(t, rr.Body.String(), `name="csrf_token"`)
}

func TestRegister_ClosedIsNotFound(t *testing.T) {
	cases := map[string]config.Features{
		"registration off": {EmailLogin: true},
		"email login off":  {Registration: true},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, f)
			rr := h.do(httptest.NewRequest(http.MethodGet, "/en/register", nil))
			assert.Equal(t, http.StatusNotFound, rr.Code)
			rr = h.postRegister(t, "Ada", "ada@example.com", strongPassword, strongPassword)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestRegister_InstanceKillSwitch(t *testing.T) {
	h := newHarness(t, config.Features{DemoMode: true})
	h.mock.ExpectQuery(regexp.QuoteMeta("SELECT disable_user_registration")).
		WillReturnRows(sqlmock.NewRows([]string{"disable_user_registration"}).AddRow(true))

	rr := h.do(httptest.NewRequest(http.MethodGet, "/en/register", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestRegisterPOST_CreatesPersonalSpace(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true, Registration: true})
	expectRegister(h.mock, false)
	h.mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM space WHERE owner_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	h.mock.ExpectBegin()
	h.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO space (id, name, owner_id, tier)")).
		WithArgs(sqlmock.AnyArg(), space.PersonalName, sqlmock.AnyArg(), space.TierHobby).
		WillReturnResult(sqlmock.NewResult(1, 1))
	h.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO space_member")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	h.mock.ExpectCommit()

	rr := h.postRegister(t, "Ada", "Ada@Example.com", strongPassword, strongPassword)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/en/login?registered=1", rr.Header().Get("Location"))
	for _, ck := range rr.Result().Cookies() {
		assert.NotEqual(t, cookieName, ck.Name, "unverified users must not be signed in")
	}
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestRegisterPOST_SpaceFailureStillSucceeds(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true, Registration: true})
	expectRegister(h.mock, false)
	h.mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM space")).
		WillReturnError(assert.AnError)

	rr := h.postRegister(t, "Ada", "ada@example.com", strongPassword, strongPassword)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/en/login?registered=1", rr.Header().Get("Location"))
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestRegisterPOST_DemoSignsIn(t *testing.T) {
	h := newHarness(t, config.Features{DemoMode: true, Registration: true})
	expectRegister(h.mock, true)
	h.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rr := h.postRegister(t, "Ada", "ada@example.com", "abcdefgh", "abcdefgh")
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

func TestRegisterPOST_Rejections(t *testing.T) {
	cases := []struct {
		name, user, email, pass, confirm, want string
	}{
		{"missing name", "", "ada@example.com", strongPassword, strongPassword, "valid email address"},
		{"bad email", "Ada", "not-an-email", strongPassword, strongPassword, "valid email address"},
		{"mismatch", "Ada", "ada@example.com", strongPassword, strongPassword + "x", "do not match"},
		{"common pattern", "Ada", "ada@example.com", "Password123!", "Password123!", "too easy to guess"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, config.Features{EmailLogin: true, Registration: true})
			rr := h.postRegister(t, tc.user, tc.email, tc.pass, tc.confirm)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.want)
			assert.NoError(t, h.mock.ExpectationsWereMet(), "no SQL before validation passes")
		})
	}
}

func TestRegisterPOST_EmailTaken(t *testing.T) {
	h := newHarness(t, config.Features{EmailLogin: true, Registration: true})
	h.mock.ExpectBegin()
	h.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	h.mock.ExpectRollback()

	rr := h.postRegister(t, "Ada", "ada@example.com", strongPassword, strongPassword)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")
	assert.Contains(t, rr.Body.String(), `value="ada@example.com"`)
	assert.NoError(t, h.mock.ExpectationsWereMet())
}
