// internal/acl/middleware.go
//
// Chi middleware helpers that enforce abilities.

package acl

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/identity"
)

// RequireAbility lets the request through when the current member may
// perform action on subject.  Denials answer 404 so the existence of the
// page is not revealed.
func RequireAbility(action, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := identity.FromContext(r.Context())
			if q == nil {
				zap.L().Error("acl: identity middleware missing")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := r.Context()
			u := q.RequireUser(ctx)
			if ForUser(u).Can(action, subject) || ForMember(q.RequireSpace(ctx), u).Can(action, subject) {
				next.ServeHTTP(w, r)
				return
			}
			http.NotFound(w, r)
		})
	}
}
