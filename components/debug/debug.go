// components/debug/debug.go
//
// Debug component – echoes what the edge and identity layers derived for
// the current request: locale, request info (UA, IP, Geo), and session
// source.  Served only in demo mode; other deployments answer 404.
package debug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/requestinfo"
	"github.com/yanizio/pollspace/internal/routing"
)

// compile-time assertions
var (
	_ component.Component   = (*Comp)(nil)
	_ component.Initializer = (*Comp)(nil)
)

// Comp implements component.Component.
type Comp struct {
	enabled bool
}

func (c *Comp) Name() string { return "debug" }

func (c *Comp) Init(d component.Deps) error {
	c.enabled = d.Flags.DemoMode
	return nil
}

// Routes serves /{locale}/debug.  The locale headers read below are the
// ones the edge middleware mirrors onto rewritten requests.
func (c *Comp) Routes(r chi.Router) {
	r.Get("/debug", c.handleRequest)
}

func (c *Comp) handleRequest(w http.ResponseWriter, r *http.Request) {
	if !c.enabled {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	out := map[string]any{
		"locale":   r.Header.Get(routing.HeaderLocale),
		"pathname": r.Header.Get(routing.HeaderPathname),
		"request":  requestinfo.FromContext(ctx),
		"session":  "none",
	}
	if q := identity.FromContext(ctx); q != nil {
		out["session"] = q.Session(ctx).Kind.String()
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// Register component at package init.
func init() {
	component.Register(&Comp{})
}
