// internal/view/render.go
//
// Central view engine: embedded template sets, func-map injection, and an
// LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - RegisterFS     – components hand over their embedded templates.
//   - Render         – write a full page (layout + component template).
//   - RenderFragment – write a component template without the layout.
//
// Every page set is the shared layout (templates/*.html, embedded here)
// plus the component's `templates/<name>.html`.  The layout executes
// `{{ template "content" . }}`, which each page file defines, and the
// shared partials (`csrf`, `nav`) are available to every page.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/cache"
	"github.com/yanizio/pollspace/internal/core"
	"github.com/yanizio/pollspace/internal/user"
)

//go:embed templates/*.html
var layoutFS embed.FS

// Parsed template sets keyed by "<comp>::<name>".
var tmplLRU = cache.New[string, *template.Template](256)

var (
	mu  sync.RWMutex
	fss = map[string]fs.FS{}
)

// RegisterFS makes comp's templates available.  fsys must contain a
// `templates/` directory.
func RegisterFS(comp string, fsys fs.FS) {
	mu.Lock()
	fss[comp] = fsys
	mu.Unlock()
}

// Page is the data handed to every template.  Handlers fill Title, CSRF,
// and Data; Render fills the rest from the core.Context.
type Page struct {
	Title    string
	CSRF     string
	Data     any
	User     *user.User
	Locale   string
	Pathname string
}

// Render executes the layout around comp/name and streams it to w.
func Render(c *core.Context, comp, name string, p Page) error {
	return render(c, comp, name, "layout", p)
}

// RenderFragment executes comp/name's "content" block without the layout.
func RenderFragment(c *core.Context, comp, name string, p Page) error {
	return render(c, comp, name, "content", p)
}

func render(c *core.Context, comp, name, root string, p Page) error {
	t, err := load(comp, name)
	if err != nil {
		return err
	}
	p.Locale = c.Locale
	p.Pathname = c.Pathname
	if p.User == nil && c.Identity != nil {
		p.User = c.Identity.RequireUser(c.Request.Context())
	}

	t, err = t.Clone()
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{"path": c.Path})

	c.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.ExecuteTemplate(c.Writer, root, p)
}

// Fail logs err and writes a bare 500.  Templates never see the error.
func Fail(w http.ResponseWriter, err error) {
	zap.L().Error("render failed", zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

//
// internal: load
//

func load(comp, name string) (*template.Template, error) {
	key := comp + "::" + name
	if t, ok := tmplLRU.Get(key); ok {
		return t, nil
	}

	mu.RLock()
	fsys, ok := fss[comp]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("view: component %q has no templates", comp)
	}
	if _, err := fs.Stat(fsys, "templates/"+name+".html"); err != nil {
		return nil, fmt.Errorf("view: %s/%s: %w", comp, name, err)
	}

	t, err := template.New(name).Funcs(baseFuncs()).ParseFS(layoutFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: layout: %w", err)
	}
	// The page file is parsed last so its "content" block wins.
	if _, err := t.ParseFS(fsys, "templates/"+name+".html"); err != nil {
		return nil, fmt.Errorf("view: %s/%s: %w", comp, name, err)
	}

	tmplLRU.Add(key, t)
	return t, nil
}

//
// func-map builders
//

// baseFuncs are available at parse time.  "path" is rebound per request.
func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": dict,
		"path": func(p string) string { return p },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
