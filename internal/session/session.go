// internal/session/session.go
//
// Signed session-cookie primitives.
//
// Context
//   The primary session mechanism stores an opaque token in a cookie and the
//   session row in MySQL.  The cookie value is `<token>.<sig>` where sig is
//   HMAC-SHA256(secret, token), base64url without padding.  A forged or
//   truncated cookie fails Verify before any database round-trip.
//
//   These helpers only deal with cookies; internal/auth owns the rows.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

// Sign returns "<token>.<sig>".
func Sign(secret []byte, token string) string {
	return token + "." + mac(secret, token)
}

// Verify checks a signed value and returns the bare token.
func Verify(secret []byte, value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	token, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(mac(secret, token))) {
		return "", false
	}
	return token, true
}

func mac(secret []byte, token string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Set writes an HttpOnly, Lax cookie that expires at exp.
func Set(w http.ResponseWriter, name, value string, exp time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure || strings.HasPrefix(name, "__Secure-"),
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   int(time.Until(exp) / time.Second),
	})
}

// Clear expires the named cookie.
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   strings.HasPrefix(name, "__Secure-"),
	})
}

// Read returns the cookie value, if present and non-empty.
func Read(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Secure reports whether the request arrived over HTTPS, directly or via a
// proxy that sets X-Forwarded-Proto.
func Secure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
