// cmd/web/main.go
//
// pollspace – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load config (conf/.env → conf/global.yaml → POLLSPACE_ env, Vault refs
//     resolved).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the MySQL pool, the optional GeoLite2 reader, and the locale set.
//
//  4. Wire the session layer: the primary store is built lazily, the
//     legacy JWT mechanism only when enabled, and the Resolver tries them
//     in that order.
//
//  5. Build the chi router:
//
//     • RequestID, Recoverer        – chi middleware
//     • requestinfo.Enrich          – UA, IP, Geo
//     • AccessLog, Security, HTTPS  – internal/middleware
//     • routing.Middleware          – locale rewrite / redirect / skip
//     • identity.Middleware         – per-request identity memo
//     • /metrics, /healthz, /static – outside the locale prefix
//     • /api/*                      – component API routes
//     • /{locale}/*                 – component pages
//
//  6. Serve until SIGINT/SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/pollspace/internal/auth"
	"github.com/yanizio/pollspace/internal/component"
	"github.com/yanizio/pollspace/internal/config"
	"github.com/yanizio/pollspace/internal/csrf"
	"github.com/yanizio/pollspace/internal/database"
	"github.com/yanizio/pollspace/internal/feature"
	"github.com/yanizio/pollspace/internal/identity"
	"github.com/yanizio/pollspace/internal/locale"
	"github.com/yanizio/pollspace/internal/logger"
	"github.com/yanizio/pollspace/internal/middleware"
	"github.com/yanizio/pollspace/internal/password"
	"github.com/yanizio/pollspace/internal/requestinfo"
	"github.com/yanizio/pollspace/internal/routing"
	"github.com/yanizio/pollspace/internal/server"
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"

	_ "github.com/yanizio/pollspace/components/admin"
	_ "github.com/yanizio/pollspace/components/auth"
	_ "github.com/yanizio/pollspace/components/dashboard"
	_ "github.com/yanizio/pollspace/components/debug"
	_ "github.com/yanizio/pollspace/components/settings"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config and logger ───────────────────────────────────────────
	//
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logDir := cfg.Log.Dir
	if logDir == "" {
		logDir = filepath.Join(cfg.Paths.Root, "logs")
	}
	logOut, err := logger.New(logger.Options{Dir: logDir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync() //nolint:errcheck

	//
	// ── 2.  Database, Geo, locales ──────────────────────────────────────
	//
	logOut.Info("connecting to database …")
	db, err := database.OpenWithOptions(ctx, cfg.Database.ResolvedDSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: database.DefaultOptions.ConnMaxLifetime,
		Retries:         cfg.Database.Retries,
		RetryBackoff:    database.DefaultOptions.RetryBackoff,
	})
	if err != nil {
		logOut.Fatalw("connect database", "err", err)
	}
	defer db.Close()
	logOut.Info("database online")

	geo, err := requestinfo.OpenGeo(cfg.Geo.DBPath)
	if err != nil {
		// Geo enriches logs only; run without it.
		logOut.Warnw("geoip disabled", "path", cfg.Geo.DBPath, "err", err)
	} else if geo != nil {
		defer geo.Close()
	}

	locales, err := locale.NewSet(cfg.Locale.Supported, cfg.Locale.Default)
	if err != nil {
		logOut.Fatalw("locale set", "err", err)
	}

	//
	// ── 3.  Session layer and identity ──────────────────────────────────
	//
	flags := feature.FromConfig(cfg.Features)

	sessions := auth.NewLazy(func() (*auth.Store, error) {
		return auth.NewStore(db, auth.StoreOptions{
			Secret:     cfg.Auth.Secret,
			CookieName: cfg.Auth.SessionCookie,
			TTL:        cfg.Auth.SessionTTL,
			DemoMode:   flags.DemoMode,
		})
	})

	// legacy stays a nil interface when disabled; the Resolver skips it.
	var legacy auth.Provider
	if cfg.Auth.Legacy.Enabled {
		l, err := auth.NewLegacyJWT(cfg.Auth.Legacy.Secret)
		if err != nil {
			logOut.Fatalw("legacy sessions", "err", err)
		}
		legacy = l
	}
	resolver := auth.NewResolver(sessions, legacy, db)

	users := user.NewStore(db)
	spaces := space.NewStore(db)
	loader := identity.NewLoader(resolver, users, spaces, cfg.Admin.InitialEmail)

	deps := component.Deps{
		DB:       db,
		Config:   cfg,
		Locales:  locales,
		Resolver: resolver,
		Sessions: sessions,
		Loader:   loader,
		Users:    users,
		Spaces:   spaces,
		Settings: feature.NewSettings(db),
		Flags:    flags,
		CSRF:     csrf.New(cfg.CSRF.Key),
		Password: password.Policy{DemoMode: flags.DemoMode},
	}
	if err := component.InitAll(deps); err != nil {
		logOut.Fatalw("components", "err", err)
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	hint := routing.CookieHint(auth.CookieNames(cfg.Auth.SessionCookie, cfg.Auth.Legacy.Enabled)...)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.AccessLog(zap.L()))
	r.Use(middleware.Security(cfg.HTTP.ForceHTTPS))
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))
	r.Use(routing.Middleware(routing.OptionsFromConfig(cfg, locales, hint)))
	r.Use(identity.Middleware(loader))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", server.Health(db))
	static := http.FileServer(http.Dir(filepath.Join(cfg.Paths.Root, "static")))
	r.Handle("/static/*", http.StripPrefix("/static/", static))

	api, pages := chi.NewRouter(), chi.NewRouter()
	component.Mount(pages, api)
	r.Mount("/api", api)
	r.Mount("/{locale}", pages)

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, r)
	logOut.Infow("starting",
		"addr", cfg.HTTP.ListenAddr,
		"mode", cfg.Routing.Mode,
		"legacy_sessions", cfg.Auth.Legacy.Enabled,
		"started", time.Now().UTC(),
	)
	if err := server.Run(ctx, srv); err != nil {
		logOut.Errorw("http server", "err", err)
	}
}
