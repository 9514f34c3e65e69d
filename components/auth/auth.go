// components/auth/auth.go
//
// Authentication component – login, logout, and the session API.
//
// Context
// -------
// Page routes live under `/{locale}`:
//
//   - GET  /login    – credentials form, demo panel.
//   - POST /login    – verify password, create primary session, merge guest.
//   - POST /logout   – end both sessions.
//   - GET  /register – sign-up form (register.go).
//   - POST /register – create the account (register.go).
//
// API routes live under `/api`:
//
//   - GET  /api/auth/session  – resolved session as JSON (`null` when none).
//   - POST /api/auth/sign-out – end both sessions, 204.
//
// Notes
// -----
// • OAuth providers are not served here, so the page offers no SSO
//   buttons.
// • Form POSTs run behind csrf.Protect.  The JSON sign-out relies on
//   SameSite=Lax session cookies instead.
// • Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/view"
)

//go:embed templates/*.html
var templates embed.FS

// Compile-time assertions.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
	_ component.APIProvider = (*Component)(nil)
)

// Component encapsulates login functionality.
type Component struct {
	deps   component.Deps
	spaces PersonalSpaces
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init keeps the shared dependencies.
func (c *Component) Init(d component.Deps) error {
	c.deps = d
	if d.Spaces != nil {
		c.spaces = d.Spaces
	}
	return nil
}

// Routes adds the page handlers.
func (c *Component) Routes(r chi.Router) {
	r.Get("/login", c.handleLoginGET)
	r.With(c.deps.CSRF.Protect).Post("/login", c.handleLoginPOST)
	r.With(c.deps.CSRF.Protect).Post("/logout", c.handleLogout)
	r.Get("/register", c.handleRegisterGET)
	r.With(c.deps.CSRF.Protect).Post("/register", c.handleRegisterPOST)
}

// APIRoutes adds the JSON handlers.
func (c *Component) APIRoutes(r chi.Router) {
	r.Get("/auth/session", c.handleSessionAPI)
	r.Post("/auth/sign-out", c.handleSignOutAPI)
}

// Register component at program start.
func init() {
	view.RegisterFS("auth", templates)
	component.Register(&Component{})
}

/*──────────────────────────── Page data ────────────────────────────────────*/

// demoPanel is shown on the login page in demo mode.
type demoPanel struct {
	Email    string
	Password string
}

type loginData struct {
	Email        string
	Error        string
	Notice       string
	EmailLogin   bool
	Registration bool
	Demo         *demoPanel
}

func (c *Component) loginData(r *http.Request) loginData {
	cfg := c.deps.Config
	d := loginData{EmailLogin: c.deps.Flags.EmailLogin, Registration: c.registrationOpen(r)}
	if r.URL.Query().Get("registered") == "1" {
		d.Notice = "Account created.  Verify your email address, then log in."
	}
	if c.deps.Flags.DemoMode && cfg.Demo.Email != "" {
		d.Demo = &demoPanel{Email: cfg.Demo.Email, Password: cfg.Demo.Password}
	}
	return d
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	if vctx.Identity != nil && vctx.Identity.RequireUser(r.Context()) != nil {
		vctx.Redirect("/")
		return
	}
	c.renderLogin(vctx, c.loginData(r))
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	vctx := core.New(w, r)
	if !c.deps.Flags.EmailLogin {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	data := c.loginData(r)
	data.Email = r.PostFormValue("email")
	pass := r.PostFormValue("password")

	store, err := c.deps.Sessions.Get()
	if err != nil {
		zap.L().Warn("login unavailable", zap.Error(err))
		data.Error = "Sign-in is temporarily unavailable."
		c.renderLogin(vctx, data)
		return
	}

	userID, err := store.VerifyPassword(ctx, data.Email, pass)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		data.Error = "Incorrect email or password."
		c.renderLogin(vctx, data)
		return
	case errors.Is(err, auth.ErrEmailNotVerified):
		data.Error = "Please verify your email address first."
		c.renderLogin(vctx, data)
		return
	case err != nil:
		view.Fail(w, err)
		return
	}

	if _, err := store.Create(ctx, w, r, userID); err != nil {
		view.Fail(w, err)
		return
	}
	if err := c.deps.Resolver.AfterSignIn(ctx, w, r, userID); err != nil {
		// The primary session exists; a failed merge only loses guest data.
		zap.L().Warn("guest merge failed", zap.String("user_id", userID), zap.Error(err))
	}
	zap.L().Info("signed in", zap.String("user_id", userID))
	vctx.Redirect("/")
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := c.deps.Resolver.SignOut(r.Context(), w, r); err != nil {
		zap.L().Warn("sign-out incomplete", zap.Error(err))
	}
	core.New(w, r).Redirect("/login")
}

func (c *Component) renderLogin(vctx *core.Context, d loginData) {
	tok, err := c.deps.CSRF.Generate()
	if err != nil {
		view.Fail(vctx.Writer, err)
		return
	}
	if err := view.Render(vctx, "auth", "login", view.Page{Title: "Log in", CSRF: tok, Data: d}); err != nil {
		view.Fail(vctx.Writer, err)
	}
}

/*──────────────────────────── API ──────────────────────────────────────────*/

// sessionJSON is the wire shape of GET /api/auth/session.
type sessionJSON struct {
	User    auth.SessionUser `json:"user"`
	Expires string           `json:"expires,omitempty"`
	Source  string           `json:"source"`
}

func (c *Component) handleSessionAPI(w http.ResponseWriter, r *http.Request) {
	var s auth.Session
	if q := identity.FromContext(r.Context()); q != nil {
		s = q.Session(r.Context())
	} else {
		s = c.deps.Resolver.Resolve(r.Context(), r)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	var out *sessionJSON
	if s.Valid() {
		out = &sessionJSON{User: s.User, Source: s.Kind.String()}
		if !s.Expires.IsZero() {
			out.Expires = s.Expires.UTC().Format(time.RFC3339)
		}
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		zap.L().Warn("session api encode", zap.Error(err))
	}
}

func (c *Component) handleSignOutAPI(w http.ResponseWriter, r *http.Request) {
	if err := c.deps.Resolver.SignOut(r.Context(), w, r); err != nil {
		zap.L().Warn("sign-out incomplete", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
