// internal/core/context.go
//
// Central per-request context.
//
// Context
// -------
// Every page handler builds a *core.Context and passes it to the view
// layer.  It bundles:
//
//   - Request  — the routed *http.Request (locale prefix already applied).
//   - Writer   — convenience http.ResponseWriter.
//   - Locale   — the locale chosen by the edge middleware.
//   - Pathname — the request path without the locale prefix.
//   - Identity — the per-request identity memo.
//   - Info     — parsed UA, IP, geo, and timestamp.
//
// Notes
// -----
// • Identity may be nil in tests that skip identity.Middleware.
// • Oxford commas, two spaces after periods.
package core

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/requestinfo"
)

// Context is passed to page handlers and templates.
type Context struct {
	Request  *http.Request
	Writer   http.ResponseWriter
	Locale   string
	Pathname string
	Identity *identity.Request
	Info     *requestinfo.RequestInfo
}

// New builds a Context from values the middleware chain stored on r.  When
// the locale middleware did not run (tests, direct mounts) the `{locale}`
// route param is used instead.
func New(w http.ResponseWriter, r *http.Request) *Context {
	ctx := r.Context()
	loc := locale.FromContext(ctx)
	if loc == "" {
		loc = chi.URLParam(r, "locale")
	}
	return &Context{
		Request:  r,
		Writer:   w,
		Locale:   loc,
		Pathname: locale.PathnameFromContext(ctx),
		Identity: identity.FromContext(ctx),
		Info:     requestinfo.FromContext(ctx),
	}
}

// Path prefixes a locale-relative path with the current locale.
func (c *Context) Path(p string) string {
	if c.Locale == "" {
		return p
	}
	if p == "/" || p == "" {
		return "/" + c.Locale
	}
	return "/" + c.Locale + p
}

// Redirect sends a 303 to a locale-relative path.
func (c *Context) Redirect(p string) {
	http.Redirect(c.Writer, c.Request, c.Path(p), http.StatusSeeOther)
}
