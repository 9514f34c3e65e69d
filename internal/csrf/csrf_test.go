package csrf

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

var testKey = base64.RawURLEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestGenerateVerify(t *testing.T) {
	s := New(testKey)
	tok, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatalf("fresh token rejected")
	}
	if New(base64.RawURLEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff"))).Verify(tok) {
		t.Fatalf("token accepted under another key")
	}
	if s.Verify(tok[:len(tok)-2]) || s.Verify("") {
		t.Fatalf("malformed token accepted")
	}
}

func TestVerify_Expired(t *testing.T) {
	s := New(testKey)
	base := time.Now()
	s.now = func() time.Time { return base }
	tok, _ := s.Generate()

	s.now = func() time.Time { return base.Add(maxAge + time.Second) }
	if s.Verify(tok) {
		t.Fatalf("expired token accepted")
	}
}

func TestProtect(t *testing.T) {
	s := New(testKey)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := s.Protect(ok)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("POST without token status = %d, want 403", rr.Code)
	}

	tok, _ := s.Generate()
	form := url.Values{FieldName: {tok}}
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST with token status = %d, want 200", rr.Code)
	}
}
