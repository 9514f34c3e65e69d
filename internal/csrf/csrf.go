// internal/csrf/csrf.go
//
// Stateless CSRF tokens for HTML forms.
//
// Context
//   Login, logout, settings, and admin-setup forms embed a hidden
//   `csrf_token` input generated at render time.  POST handlers run behind
//   Protect, which rejects requests whose token fails verification.  The
//   token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed by `csrf.key` from config.
//
//   Validation checks the signature and the MaxAge window.  No server-side
//   state is needed, so any instance can verify any token.
//
//------------------------------------------------------------------------------

package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FieldName is the form input carrying the token.
const FieldName = "csrf_token"

const (
	tokenBytes = 16 + 8 + sha256.Size
	maxAge     = 2 * time.Hour
)

// Signer issues and verifies tokens.
type Signer struct {
	key []byte
	now func() time.Time
}

// New returns a Signer keyed by a base64url key of at least 32 bytes.  An
// empty or short key falls back to a random per-process key, which breaks
// forms across restarts and instances.
func New(key string) *Signer {
	s := &Signer{now: time.Now}
	if b, err := base64.RawURLEncoding.DecodeString(key); err == nil && len(b) >= 32 {
		s.key = b
		return s
	}
	s.key = make([]byte, 32)
	_, _ = rand.Read(s.key)
	zap.L().Warn("csrf key missing or short, using random key")
	return s
}

// Generate creates a new token.  Call once per form render.
func (s *Signer) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok passes HMAC and age checks.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}
	nonce, ts, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := s.now()
	if now.Sub(issued) > maxAge || issued.Sub(now) > time.Minute {
		return false
	}
	return hmac.Equal(sig, s.sign(nonce, ts))
}

func (s *Signer) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// Protect rejects unsafe-method requests without a valid token with 403.
func (s *Signer) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !s.Verify(r.PostFormValue(FieldName)) {
			zap.L().Info("csrf rejected", zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
