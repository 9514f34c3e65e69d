// components/settings/settings.go
//
// Settings component – profile summary and password change.
//
// Context
// -------
//   - GET  /settings          – profile facts and, for credential
//                                accounts, the password form.
//   - POST /settings/password – verify the current password, apply the
//                                password policy, and store the new hash.
//   - GET  /settings/billing  – plan and seats of the current space, for
//                                callers who may manage billing.
//
// Anonymous callers are sent to the login page.  Accounts without a
// credential password (SSO only) see no password form.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package settings

import (
	"context"
	"embed"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/acl"
	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/password"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
	"github.com/yanizio/pollspace/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// Credentials is the slice of *auth.Store this page needs.
type Credentials interface {
	VerifyPassword(ctx context.Context, email, password string) (string, error)
	SetPassword(ctx context.Context, userID, password string) error
}

// PasswordChecker is satisfied by *user.Store.
type PasswordChecker interface {
	HasPassword(ctx context.Context, id string) (bool, error)
}

// SeatCounter is satisfied by *space.Store.
type SeatCounter interface {
	SeatCount(ctx context.Context, spaceID string) (int, error)
	MemberCount(ctx context.Context, spaceID string) (int, error)
}

// Component serves /settings.
type Component struct {
	creds   func() (Credentials, error)
	users   PasswordChecker
	seats   SeatCounter
	policy  password.Policy
	csrf    *csrf.Signer
	locales *locale.Set
	flags   feature.Flags
}

func (c *Component) Name() string { return "settings" }

func (c *Component) Init(d component.Deps) error {
	c.creds = func() (Credentials, error) { return d.Sessions.Get() }
	c.users = d.Users
	c.seats = d.Spaces
	c.policy = d.Password
	c.csrf = d.CSRF
	c.locales = d.Locales
	c.flags = d.Flags
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/settings", c.handleSettings)
	r.With(c.csrf.Protect).Post("/settings/password", c.handlePassword)
	r.With(acl.RequireAbility(acl.Manage, acl.Billing)).Get("/settings/billing", c.handleBilling)
}

func init() {
	view.RegisterFS("settings", templates)
	component.Register(&Component{})
}

type pageData struct {
	User        *user.User
	HasPassword bool
	Saved       bool
	Error       string
	Locales     []string
}

func (c *Component) handleSettings(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	u := currentUser(vctx)
	if u == nil {
		vctx.Redirect("/login")
		return
	}
	c.render(vctx, pageData{User: u, Saved: r.URL.Query().Get("saved") == "1"})
}

func (c *Component) handlePassword(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	u := currentUser(vctx)
	if u == nil {
		vctx.Redirect("/login")
		return
	}
	ctx := r.Context()
	d := pageData{User: u}

	current := r.PostFormValue("current_password")
	next := r.PostFormValue("new_password")
	if next != r.PostFormValue("confirm_password") {
		d.Error = "The new passwords do not match."
		c.render(vctx, d)
		return
	}
	if err := c.policy.Validate(next, u.Email, u.Name); err != nil {
		switch {
		case errors.Is(err, password.ErrTooShort):
			d.Error = "Use at least 8 characters."
		default:
			d.Error = "That password is too easy to guess.  Try a longer one with mixed characters."
		}
		c.render(vctx, d)
		return
	}

	store, err := c.creds()
	if err != nil {
		zap.L().Warn("password change unavailable", zap.Error(err))
		d.Error = "Password changes are temporarily unavailable."
		c.render(vctx, d)
		return
	}
	if _, err := store.VerifyPassword(ctx, u.Email, current); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrEmailNotVerified) {
			d.Error = "Your current password is incorrect."
			c.render(vctx, d)
			return
		}
		view.Fail(w, err)
		return
	}
	if err := store.SetPassword(ctx, u.ID, next); err != nil {
		view.Fail(w, err)
		return
	}
	zap.L().Info("password changed", zap.String("user_id", u.ID))
	vctx.Redirect("/settings?saved=1")
}

func (c *Component) render(vctx *core.Context, d pageData) {
	ctx := vctx.Request.Context()
	has, err := c.users.HasPassword(ctx, d.User.ID)
	if err != nil {
		zap.L().Warn("settings: has password", zap.String("user_id", d.User.ID), zap.Error(err))
	}
	d.HasPassword = has
	if c.locales != nil {
		d.Locales = c.locales.Codes()
	}

	tok, err := c.csrf.Generate()
	if err != nil {
		view.Fail(vctx.Writer, err)
		return
	}
	if err := view.Render(vctx, "settings", "settings", view.Page{Title: "Settings", CSRF: tok, Data: d}); err != nil {
		view.Fail(vctx.Writer, err)
	}
}

func currentUser(vctx *core.Context) *user.User {
	if vctx.Identity == nil {
		return nil
	}
	return vctx.Identity.RequireUser(vctx.Request.Context())
}

type billingData struct {
	Space   *space.DTO
	Seats   int
	Members int
}

func (c *Component) handleBilling(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	if !c.flags.Billing {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	sp := vctx.Identity.RequireSpace(ctx)
	if sp == nil {
		http.NotFound(w, r)
		return
	}

	d := billingData{Space: sp}
	var err error
	if d.Seats, err = c.seats.SeatCount(ctx, sp.ID); err != nil {
		zap.L().Warn("billing: seats", zap.String("space_id", sp.ID), zap.Error(err))
	}
	if d.Members, err = c.seats.MemberCount(ctx, sp.ID); err != nil {
		zap.L().Warn("billing: members", zap.String("space_id", sp.ID), zap.Error(err))
	}
	if err := view.Render(vctx, "settings", "billing", view.Page{Title: "Billing", Data: d}); err != nil {
		view.Fail(w, err)
	}
}
