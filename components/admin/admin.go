// components/admin/admin.go
//
// Admin component – instance overview and the initial-admin setup flow.
//
// Context
// -------
//   - GET  /admin        – instance admins only.  Everyone else gets the
//                          RequireAdmin outcome: login redirect, setup
//                          redirect, or 404.
//   - GET  /admin-setup  – offered to the configured initial admin while
//                          they lack the admin role.
//   - POST /admin-setup  – grants the admin role to that user.
//
// Notes
// -----
// • Non-eligible callers see 404 on both setup routes.
// • Oxford commas, two spaces after periods.

package admin

import (
	"context"
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/user"
	"github.com/yanizio/pollspace/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// Roles is satisfied by *user.Store.
type Roles interface {
	SetRole(ctx context.Context, id, role string) error
	AdminCount(ctx context.Context) (int, error)
}

// Component serves the admin pages.
type Component struct {
	roles        Roles
	settings     feature.SettingsReader
	flags        feature.Flags
	forced       bool
	initialAdmin func(email string) bool
	csrf         *csrf.Signer
}

func (c *Component) Name() string { return "admin" }

func (c *Component) Init(d component.Deps) error {
	c.roles = d.Users
	c.settings = d.Settings
	c.flags = d.Flags
	c.forced = d.Config.Features.Registration
	c.initialAdmin = d.Loader.IsInitialAdmin
	c.csrf = d.CSRF
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/admin", c.handleAdmin)
	r.Get(identity.AdminSetupPath, c.handleSetupGET)
	r.With(c.csrf.Protect).Post(identity.AdminSetupPath, c.handleSetupPOST)
}

func init() {
	view.RegisterFS("admin", templates)
	component.Register(&Component{})
}

type overview struct {
	Admins       int
	Registration bool
	Flags        feature.Flags
}

func (c *Component) handleAdmin(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	if vctx.Identity == nil {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	u, err := vctx.Identity.RequireAdmin(ctx)
	if err != nil {
		identity.WriteDenied(w, r, err)
		return
	}
	if u == nil {
		vctx.Redirect("/login")
		return
	}

	d := overview{
		Flags:        c.flags,
		Registration: feature.RegistrationEnabled(ctx, c.flags, c.forced, c.settings),
	}
	if d.Admins, err = c.roles.AdminCount(ctx); err != nil {
		zap.L().Warn("admin count", zap.Error(err))
	}
	if err := view.Render(vctx, "admin", "admin", view.Page{Title: "Admin", Data: d}); err != nil {
		view.Fail(w, err)
	}
}

// eligible returns the caller when they may run the setup flow.
func (c *Component) eligible(vctx *core.Context) *user.User {
	if vctx.Identity == nil {
		return nil
	}
	u := vctx.Identity.RequireUser(vctx.Request.Context())
	if u == nil || u.IsAdmin() || !c.initialAdmin(u.Email) {
		return nil
	}
	return u
}

func (c *Component) handleSetupGET(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	u := c.eligible(vctx)
	if u == nil {
		http.NotFound(w, r)
		return
	}
	tok, err := c.csrf.Generate()
	if err != nil {
		view.Fail(w, err)
		return
	}
	if err := view.Render(vctx, "admin", "setup", view.Page{Title: "Admin setup", CSRF: tok, Data: u}); err != nil {
		view.Fail(w, err)
	}
}

func (c *Component) handleSetupPOST(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	u := c.eligible(vctx)
	if u == nil {
		http.NotFound(w, r)
		return
	}
	if err := c.roles.SetRole(r.Context(), u.ID, user.RoleAdmin); err != nil {
		view.Fail(w, err)
		return
	}
	zap.L().Info("initial admin promoted", zap.String("user_id", u.ID))
	vctx.Redirect("/admin")
}
