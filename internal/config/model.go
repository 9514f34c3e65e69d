// internal/config/model.go
//
// Typed configuration model for pollspace.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                             – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `POLLSPACE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) keeps a single `%s` verb where the password goes so
// operators can tweak host, port, or flags without touching Vault.  The
// *secret* portion (`Password`) usually arrives as a `vault:` reference.
type Database struct {
	DSN          string `koanf:"dsn"            validate:"required"`
	Password     string `koanf:"password"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
	Retries      int    `koanf:"retries"        validate:"gte=0"`
}

//
// Log section
//

// Log controls the zap/lumberjack sink.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Locale section
//

// Locale lists the supported language tags.  Order matters: it is the
// preference order used when Accept-Language ties.
type Locale struct {
	Supported    []string      `koanf:"supported"     validate:"required,min=1,dive,required"`
	Default      string        `koanf:"default"       validate:"required"`
	CookieName   string        `koanf:"cookie_name"   validate:"required"`
	CookieMaxAge time.Duration `koanf:"cookie_max_age"`
}

//
// Routing section
//

// Deployment modes for unauthenticated entry requests.
const (
	ModeOpen  = "open"
	ModeGated = "gated"
)

// Routing configures the edge middleware.
type Routing struct {
	Mode             string   `koanf:"mode"              validate:"required,oneof=open gated"`
	EntryPaths       []string `koanf:"entry_paths"       validate:"dive,startswith=/"`
	LoginPath        string   `koanf:"login_path"        validate:"required,startswith=/"`
	ExcludedPrefixes []string `koanf:"excluded_prefixes" validate:"dive,startswith=/"`
}

//
// Auth section
//

// Auth configures both session mechanisms.  Secrets are usually Vault refs.
type Auth struct {
	Secret        string        `koanf:"secret"`
	SessionCookie string        `koanf:"session_cookie" validate:"required"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	Legacy        Legacy        `koanf:"legacy"`
}

// Legacy configures the JWT cookie mechanism being phased out.
type Legacy struct {
	Enabled bool   `koanf:"enabled"`
	Secret  string `koanf:"secret" validate:"required_if=Enabled true"`
}

//
// Admin, features, demo, geo, csrf, sso
//

// Admin names the email allowed through the admin-setup flow.
type Admin struct {
	InitialEmail string `koanf:"initial_email" validate:"omitempty,email"`
}

// Features mirrors the raw environment switches.  feature.FromConfig derives
// the effective flags (demo mode forces some on).
type Features struct {
	DemoMode     bool `koanf:"demo_mode"`
	EmailLogin   bool `koanf:"email_login"`
	Registration bool `koanf:"registration"`
	Billing      bool `koanf:"billing"`
	Storage      bool `koanf:"storage"`
	Feedback     bool `koanf:"feedback"`
	Calendars    bool `koanf:"calendars"`
}

// Demo holds the credentials advertised on the login page in demo mode.
type Demo struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// Geo points at an optional GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// CSRF holds the base64url signing key for form tokens.
type CSRF struct {
	Key string `koanf:"key"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // POLLSPACE_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Locale   Locale   `koanf:"locale"`
	Routing  Routing  `koanf:"routing"`
	Auth     Auth     `koanf:"auth"`
	Admin    Admin    `koanf:"admin"`
	Features Features `koanf:"features"`
	Demo     Demo     `koanf:"demo"`
	Geo      Geo      `koanf:"geo"`
	CSRF     CSRF     `koanf:"csrf"`
	Paths    Paths    `koanf:"-"`
}
