// components/auth/register.go
//
// Email/password sign-up.
//
// Context
// -------
//   - GET  /register – sign-up form.
//   - POST /register – create user and credential account.
//
// Both routes answer 404 unless email login is on and registration is open
// (config switch, demo mode, and the instance_settings kill switch).
//
// Workflow
// --------
//   1. Validate name and email (validator), confirm and score the password.
//   2. Store.Register writes user + account in one transaction.
//   3. Outside demo mode, the user gets a "Personal" space.  Failure is
//      logged and never fails the sign-up.
//   4. Demo users are verified already and are signed straight in; everyone
//      else is sent to /login?registered=1 to verify their email first.

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/password"
	"github.com/yanizio/pollspace/internal/view"
)

// PersonalSpaces is satisfied by *space.Store.
type PersonalSpaces interface {
	CreatePersonal(ctx context.Context, ownerID string) (string, error)
}

var validate = validator.New()

type registerForm struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email,max=254"`
}

type registerData struct {
	Name  string
	Email string
	Error string
}

func (c *Component) registrationOpen(r *http.Request) bool {
	return c.deps.Flags.EmailLogin && feature.RegistrationEnabled(r.Context(), c.deps.Flags,
		c.deps.Config.Features.Registration, c.deps.Settings)
}

func (c *Component) handleRegisterGET(w http.ResponseWriter, r *http.Request) {
	if !c.registrationOpen(r) {
		http.NotFound(w, r)
		return
	}
	c.renderRegister(core.New(w, r), registerData{})
}

func (c *Component) handleRegisterPOST(w http.ResponseWriter, r *http.Request) {
	if !c.registrationOpen(r) {
		http.NotFound(w, r)
		return
	}
	vctx := core.New(w, r)
	ctx := r.Context()

	form := registerForm{Name: r.PostFormValue("name"), Email: r.PostFormValue("email")}
	d := registerData{Name: form.Name, Email: form.Email}
	pass := r.PostFormValue("password")

	if err := validate.Struct(form); err != nil {
		d.Error = "Enter your name and a valid email address."
		c.renderRegister(vctx, d)
		return
	}
	if pass != r.PostFormValue("confirm_password") {
		d.Error = "The passwords do not match."
		c.renderRegister(vctx, d)
		return
	}
	if err := c.deps.Password.Validate(pass, form.Email, form.Name); err != nil {
		if errors.Is(err, password.ErrTooShort) {
			d.Error = "Use at least 8 characters."
		} else {
			d.Error = "That password is too easy to guess.  Try a longer one with mixed characters."
		}
		c.renderRegister(vctx, d)
		return
	}

	store, err := c.deps.Sessions.Get()
	if err != nil {
		zap.L().Warn("registration unavailable", zap.Error(err))
		d.Error = "Sign-up is temporarily unavailable."
		c.renderRegister(vctx, d)
		return
	}
	userID, err := store.Register(ctx, auth.Registration{Name: form.Name, Email: form.Email, Password: pass})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		d.Error = "An account with this email already exists."
		c.renderRegister(vctx, d)
		return
	case err != nil:
		view.Fail(w, err)
		return
	}
	zap.L().Info("registered", zap.String("user_id", userID))

	demo := c.deps.Flags.DemoMode
	if !demo && c.spaces != nil {
		if _, err := c.spaces.CreatePersonal(ctx, userID); err != nil {
			zap.L().Warn("personal space not created", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if !demo {
		vctx.Redirect("/login?registered=1")
		return
	}
	if _, err := store.Create(ctx, w, r, userID); err != nil {
		view.Fail(w, err)
		return
	}
	if err := c.deps.Resolver.AfterSignIn(ctx, w, r, userID); err != nil {
		zap.L().Warn("guest merge failed", zap.String("user_id", userID), zap.Error(err))
	}
	vctx.Redirect("/")
}

func (c *Component) renderRegister(vctx *core.Context, d registerData) {
	tok, err := c.deps.CSRF.Generate()
	if err != nil {
		view.Fail(vctx.Writer, err)
		return
	}
	if err := view.Render(vctx, "auth", "register", view.Page{Title: "Create account", CSRF: tok, Data: d}); err != nil {
		view.Fail(vctx.Writer, err)
	}
}
