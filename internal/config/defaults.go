package config

import "time"

// Defaults applied after unmarshal.  Zero values from YAML mean "unset".
const (
	defaultListenAddr    = ":8080"
	defaultLocale        = "en"
	defaultLocaleCookie  = "locale"
	defaultLocaleMaxAge  = 365 * 24 * time.Hour
	defaultSessionCookie = "pollspace.session_token"
	defaultSessionTTL    = 60 * 24 * time.Hour
	defaultLoginPath     = "/login"
)

// DefaultSupportedLocales is the language list shipped with the app.
var DefaultSupportedLocales = []string{
	"en", "ca", "cs", "da", "de", "es", "eu", "fi", "fr", "hr", "hu", "it",
	"ja", "ko", "nl", "no", "pl", "pt", "pt-BR", "ru", "sk", "sv", "tr",
	"vi", "zh", "zh-Hant",
}

// DefaultExcludedPrefixes never pass through the locale middleware.
var DefaultExcludedPrefixes = []string{"/api", "/static", "/assets", "/metrics", "/healthz"}

func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = defaultListenAddr
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 15
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if len(c.Locale.Supported) == 0 {
		c.Locale.Supported = append([]string(nil), DefaultSupportedLocales...)
	}
	if c.Locale.Default == "" {
		c.Locale.Default = defaultLocale
	}
	if c.Locale.CookieName == "" {
		c.Locale.CookieName = defaultLocaleCookie
	}
	if c.Locale.CookieMaxAge == 0 {
		c.Locale.CookieMaxAge = defaultLocaleMaxAge
	}

	if c.Routing.Mode == "" {
		c.Routing.Mode = ModeOpen
	}
	if len(c.Routing.EntryPaths) == 0 {
		c.Routing.EntryPaths = []string{"/"}
	}
	if c.Routing.LoginPath == "" {
		c.Routing.LoginPath = defaultLoginPath
	}
	if len(c.Routing.ExcludedPrefixes) == 0 {
		c.Routing.ExcludedPrefixes = append([]string(nil), DefaultExcludedPrefixes...)
	}

	if c.Auth.SessionCookie == "" {
		c.Auth.SessionCookie = defaultSessionCookie
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = defaultSessionTTL
	}
}
