// internal/routing/locale.go
//
// Edge locale middleware (rewrite or redirect).
//
// Context
// -------
// Every page is served under a locale prefix.  This middleware runs on the
// root chi router *before* route matching and decides, per request, whether
// to:
//
//   • skip    – API, static, health, and any dotted file path,
//   • redirect – entry paths without a locale (open mode → `/{loc}`) or,
//                in gated mode, entry paths without a session hint
//                (→ `/{loc}{login}`),
//   • rewrite – everything else, to `/{loc}{path}` internally.
//
// On redirect and rewrite the response always carries the `locale` cookie
// and the `x-locale` / `x-pathname` headers.  On rewrite the same values are
// copied into the request headers and the request context so handlers can
// read them without re-parsing the URL.
//
// Workflow
// --------
//   1. router.Use(routing.Middleware(opts)) as the last global middleware
//      before identity.
//   2. Middleware mutates r.URL.Path on rewrite; chi then matches
//      `/{locale}/…` routes.
//
// Notes
// -----
// • Redirects use 307 so a POST to `/` is replayed against `/{loc}`.
// • The query string survives both redirect and rewrite.

package routing

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/config"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/metrics"
)

// Headers exposed to downstream handlers and to the browser.
const (
	HeaderLocale   = "x-locale"
	HeaderPathname = "x-pathname"
)

// Options configures Middleware.  Locales is required.
type Options struct {
	Locales      *locale.Set
	CookieName   string
	CookieMaxAge time.Duration
	Secure       bool

	Mode       string // config.ModeOpen or config.ModeGated
	EntryPaths []string
	LoginPath  string
	Excluded   []string

	// HasSession is a cheap presence check (cookie exists), never a
	// verification.  Nil means "no session".
	HasSession func(*http.Request) bool
}

// OptionsFromConfig maps the routing and locale sections onto Options.
func OptionsFromConfig(cfg *config.Config, set *locale.Set, hint func(*http.Request) bool) Options {
	return Options{
		Locales:      set,
		CookieName:   cfg.Locale.CookieName,
		CookieMaxAge: cfg.Locale.CookieMaxAge,
		Secure:       cfg.HTTP.ForceHTTPS,
		Mode:         cfg.Routing.Mode,
		EntryPaths:   cfg.Routing.EntryPaths,
		LoginPath:    cfg.Routing.LoginPath,
		Excluded:     cfg.Routing.ExcludedPrefixes,
		HasSession:   hint,
	}
}

// CookieHint returns a HasSession func that reports true when any of the
// named cookies is present and non-empty.
func CookieHint(names ...string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, n := range names {
			if c, err := r.Cookie(n); err == nil && c.Value != "" {
				return true
			}
		}
		return false
	}
}

func (o Options) isEntry(path string) bool {
	path = normalize(path)
	for _, e := range o.EntryPaths {
		if normalize(e) == path {
			return true
		}
	}
	return false
}

func (o Options) hasSession(r *http.Request) bool {
	return o.HasSession != nil && o.HasSession(r)
}

// Middleware returns the edge locale middleware.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "" {
				path = "/"
			}

			if Excluded(path, opts.Excluded) {
				metrics.LocaleRouting.WithLabelValues("skip").Inc()
				next.ServeHTTP(w, r)
				return
			}

			segs := segments(path)
			var (
				loc      string
				stripped string
				prefixed bool
			)
			if len(segs) > 0 && opts.Locales.Supported(segs[0]) {
				loc, prefixed = segs[0], true
				stripped = joinPath(segs[1:])
			} else {
				loc = opts.Locales.Negotiate(r, opts.CookieName)
				stripped = path
			}

			// RawPath is only set when the client's encoding differs from
			// the default one (an escaped slash, say).  Strip and prefix
			// the escaped form too so "/a%2Fb" stays one segment.
			raw := r.URL.RawPath
			if raw != "" {
				stripped = raw
				if rsegs := segments(raw); prefixed && len(rsegs) > 0 {
					stripped = joinPath(rsegs[1:])
				}
			}

			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    loc,
				Path:     "/",
				MaxAge:   int(opts.CookieMaxAge / time.Second),
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(HeaderLocale, loc)
			w.Header().Set(HeaderPathname, stripped)

			if opts.isEntry(stripped) {
				target := ""
				switch {
				case opts.Mode == config.ModeGated && !opts.hasSession(r):
					target = "/" + loc + opts.LoginPath
				case !prefixed:
					target = "/" + loc
				}
				if target != "" {
					if r.URL.RawQuery != "" {
						target += "?" + r.URL.RawQuery
					}
					metrics.LocaleRouting.WithLabelValues("redirect").Inc()
					zap.L().Debug("locale redirect",
						zap.String("from", path),
						zap.String("to", target))
					http.Redirect(w, r, target, http.StatusTemporaryRedirect)
					return
				}
			}

			target, rawTarget := path, raw
			if !prefixed {
				target = withLocale(loc, path)
				if raw != "" {
					rawTarget = withLocale(loc, raw)
				}
			}

			r2 := r.WithContext(locale.WithContext(r.Context(), loc, stripped))
			u := *r.URL
			u.Path = target
			u.RawPath = rawTarget
			r2.URL = &u
			r2.RequestURI = u.RequestURI()
			r2.Header = r.Header.Clone()
			r2.Header.Set(HeaderLocale, loc)
			r2.Header.Set(HeaderPathname, stripped)

			metrics.LocaleRouting.WithLabelValues("rewrite").Inc()
			if target != path {
				zap.L().Debug("locale rewrite",
					zap.String("from", path),
					zap.String("to", target))
			}
			next.ServeHTTP(w, r2)
		})
	}
}

func withLocale(loc, path string) string {
	if path == "/" {
		return "/" + loc
	}
	return "/" + loc + path
}
