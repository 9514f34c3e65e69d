// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web calls InitAll once
// with the shared Deps, then hands every component the `/{locale}` router
// (Routes) and, optionally, the `/api` router (APIRoutes).  Components add
// their handlers directly; chi refuses two mounts on the same pattern.
//
// Notes
// -----
// • All() is sorted by name so mount order is stable across runs.
// • Oxford commas, two spaces after periods.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/config"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/password"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
)

// Deps exposes process-wide resources to Components during Init.
type Deps struct {
	DB       *sqlx.DB
	Config   *config.Config
	Locales  *locale.Set
	Resolver *auth.Resolver
	Sessions *auth.Lazy[*auth.Store]
	Loader   *identity.Loader
	Users    *user.Store
	Spaces   *space.Store
	Settings *feature.Settings
	Flags    feature.Flags
	CSRF     *csrf.Signer
	Password password.Policy
}

// Initializer is optional.  If a Component implements it, InitAll calls
// Init(deps) once before any route is mounted.
type Initializer interface {
	Init(Deps) error
}

// APIProvider is optional.  APIRoutes(r) receives the `/api` router,
// outside the locale prefix.
type APIProvider interface {
	APIRoutes(r chi.Router)
}

// Component contract.  Routes(r) receives the `/{locale}` router:
//
//	func (c *Component) Routes(r chi.Router) {
//		r.Get("/login", c.getLogin)
//	}
type Component interface {
	Name() string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// InitAll runs Init on every component that implements Initializer and
// stops at the first failure.
func InitAll(d Deps) error {
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(d); err != nil {
				return fmt.Errorf("component %s: init: %w", c.Name(), err)
			}
		}
	}
	return nil
}

// Mount lets every component add page routes to pages and API routes to
// api.
func Mount(pages, api chi.Router) {
	for _, c := range All() {
		c.Routes(pages)
		if p, ok := c.(APIProvider); ok {
			p.APIRoutes(api)
		}
	}
}
