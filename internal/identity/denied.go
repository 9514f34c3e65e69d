// internal/identity/denied.go
//
// Navigational outcomes of RequireAdmin and their HTTP rendering.

package identity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pollspace/internal/locale"
)

// AdminSetupPath is the locale-relative setup page.
const AdminSetupPath = "/admin-setup"

// ErrNotFound hides a page from callers who may not see it.
var ErrNotFound = errors.New("identity: not found")

// Redirect asks the handler to send the caller elsewhere.  To is
// locale-relative.
type Redirect struct {
	To string
}

func (r *Redirect) Error() string { return "identity: redirect to " + r.To }

// WriteDenied renders err: 303 to the localised target for *Redirect, 404
// for anything else.  No user data is written.  The locale comes from the
// edge middleware, or the `{locale}` route param when it did not run.
func WriteDenied(w http.ResponseWriter, r *http.Request, err error) {
	var rd *Redirect
	if errors.As(err, &rd) {
		target := rd.To
		loc := locale.FromContext(r.Context())
		if loc == "" {
			loc = chi.URLParam(r, "locale")
		}
		if loc != "" {
			target = "/" + loc + rd.To
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.NotFound(w, r)
}
