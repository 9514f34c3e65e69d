//
//  internal/requestinfo/requestinfo.go
//
//  Per-request client metadata (user-agent fingerprint, IP plus optional
//  geolocation, and timestamp).  The structs are inert, so they are safe
//  to log or JSON-encode.  Consumers:
//
//  • the access log (browser, country),
//  • the session store, which records IP and UA on every new session.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent properties.
type UA struct {
	Raw       string `json:"-"`
	Browser   string `json:"browser"`    // "Chrome", "Firefox", "Safari", ...
	Version   string `json:"version"`    // "124.0.6367"
	OS        string `json:"os"`         // "macOS", "Windows", "Android", ...
	OSVersion string `json:"os_version"` // "14.5"
	Device    string `json:"device"`     // "Desktop", "Phone", "Tablet", ...
	Platform  string `json:"platform"`   // "Mac", "Windows", "Linux", ...
	IsBot     bool   `json:"bot"`
}

// Geo holds IP-based geolocation hints.  Best-effort; empty without a DB.
type Geo struct {
	IP         net.IP `json:"ip"`
	CountryISO string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA        `json:"ua"`
	Geo       Geo       `json:"geo"`
	Timestamp time.Time `json:"ts"`
}

// IPString returns the client IP or "" when unknown.
func (ri *RequestInfo) IPString() string {
	if ri == nil || ri.Geo.IP == nil {
		return ""
	}
	return ri.Geo.IP.String()
}

//
//  -----------------------------
//  GeoLite2 reader
//  -----------------------------
//

// geoReader is safe for concurrent reads.  Nil means lookups are skipped.
var geoReader atomic.Pointer[geoip2.Reader]

// OpenGeo loads the GeoLite2-City database.  An empty path disables
// geolocation.  Callers close the returned reader on shutdown.
func OpenGeo(dbPath string) (*geoip2.Reader, error) {
	if dbPath == "" {
		return nil, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open geo db %s: %w", dbPath, err)
	}
	geoReader.Store(r)
	return r, nil
}

type ctxKey struct{}

// FromContext returns the value stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithContext stores ri in ctx.  Enrich uses it; tests may too.
func WithContext(ctx context.Context, ri *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, ri)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(header string) UA {
	u := uasurfer.Parse(header)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:       header,
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   trimVersion(u.Browser.Version),
		OS:        osName,
		OSVersion: trimVersion(u.OS.Version),
		Device:    deviceName(u.DeviceType),
		Platform:  strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:     u.IsBot(),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0" parts.
func trimVersion(v uasurfer.Version) string {
	out := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	return out
}

func deviceName(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// lookupGeo returns best-effort Geo data using the shared reader.
func lookupGeo(ip net.IP) Geo {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := r.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
