// internal/locale/locale.go
//
// Supported-locale set and request negotiation.
//
// Context
// -------
// Every page URL carries a locale prefix (`/fr/settings`).  When the prefix
// is missing the edge middleware asks this package which locale to serve:
//
//  1. the `locale` cookie, when it names a supported code,
//  2. the best Accept-Language match (golang.org/x/text/language),
//  3. the configured default.
//
// Negotiation never fails.  Unknown or malformed input falls through to the
// next step, so the result is always a member of the set.
//
// The resolved locale and the locale-stripped path are stored in the
// request context so handlers never re-parse the URL.
package locale

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/language"
)

// Set is an ordered, immutable list of supported locale codes.
type Set struct {
	codes   []string
	index   map[string]struct{}
	def     string
	ordered []string // default first, then codes; matcher index space
	matcher language.Matcher
}

// NewSet validates codes and builds the Accept-Language matcher.  def must
// be one of codes.
func NewSet(codes []string, def string) (*Set, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("locale: empty supported list")
	}
	s := &Set{
		codes: append([]string(nil), codes...),
		index: make(map[string]struct{}, len(codes)),
		def:   def,
	}
	for _, c := range codes {
		s.index[c] = struct{}{}
	}
	if _, ok := s.index[def]; !ok {
		return nil, fmt.Errorf("locale: default %q not supported", def)
	}

	// The matcher falls back to its first tag, so the default goes first.
	s.ordered = append(s.ordered, def)
	for _, c := range codes {
		if c != def {
			s.ordered = append(s.ordered, c)
		}
	}
	tags := make([]language.Tag, 0, len(s.ordered))
	for _, c := range s.ordered {
		tag, err := language.Parse(c)
		if err != nil {
			return nil, fmt.Errorf("locale: parse %q: %w", c, err)
		}
		tags = append(tags, tag)
	}
	s.matcher = language.NewMatcher(tags)
	return s, nil
}

// Supported reports whether code is an exact member of the set.
func (s *Set) Supported(code string) bool {
	_, ok := s.index[code]
	return ok
}

// Default returns the fallback locale.
func (s *Set) Default() string { return s.def }

// Codes returns a copy of the configured codes in configured order.
func (s *Set) Codes() []string { return append([]string(nil), s.codes...) }

// Negotiate picks the locale for a request without an explicit prefix.
func (s *Set) Negotiate(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && s.Supported(c.Value) {
		return c.Value
	}
	return s.Match(r.Header.Get("Accept-Language"))
}

// Match returns the best supported locale for an Accept-Language value, or
// the default when nothing matches.
func (s *Set) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return s.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return s.def
	}
	for i, t := range tags {
		tags[i] = s.alias(t)
	}
	_, idx, conf := s.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(s.ordered) {
		return s.def
	}
	return s.ordered[idx]
}

// macroAliases maps individual languages onto the macrolanguage code sites
// usually configure.  The x/text matcher scores nb closer to da than to no.
var macroAliases = map[string]string{
	"nb": "no",
	"nn": "no",
}

// alias rewrites t to its macrolanguage when only the macrolanguage is
// supported.
func (s *Set) alias(t language.Tag) language.Tag {
	b, _ := t.Base()
	to, ok := macroAliases[b.String()]
	if !ok || !s.Supported(to) || s.Supported(b.String()) {
		return t
	}
	base, err := language.ParseBase(to)
	if err != nil {
		return t
	}
	if out, err := language.Compose(base); err == nil {
		return out
	}
	return t
}

//
// request context
//

type ctxKey struct{}

type resolved struct {
	locale   string
	pathname string
}

// WithContext stores the resolved locale and the locale-stripped path.
func WithContext(ctx context.Context, loc, pathname string) context.Context {
	return context.WithValue(ctx, ctxKey{}, resolved{locale: loc, pathname: pathname})
}

// FromContext returns the locale chosen by the edge middleware, or "" when
// the middleware did not run (API and asset paths).
func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(resolved)
	return v.locale
}

// PathnameFromContext returns the request path without its locale prefix.
func PathnameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(resolved)
	return v.pathname
}
