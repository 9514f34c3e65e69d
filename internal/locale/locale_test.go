package locale

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet(t *testing.T) *Set {
	t.Helper()
	s, err := NewSet([]string{"en", "de", "fr", "pt", "pt-BR", "zh-Hant"}, "en")
	require.NoError(t, err)
	return s
}

func TestNewSet_DefaultMustBeSupported(t *testing.T) {
	_, err := NewSet([]string{"en", "fr"}, "de")
	require.Error(t, err)

	_, err = NewSet(nil, "en")
	require.Error(t, err)
}

func TestMatch(t *testing.T) {
	s := testSet(t)
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", "en"},
		{"exact", "fr", "fr"},
		{"region falls back to base", "de-AT,de;q=0.9", "de"},
		{"quality order", "ja;q=0.9,fr;q=0.8", "fr"},
		{"regional variant", "pt-BR", "pt-BR"},
		{"unsupported", "ja", "en"},
		{"garbage", ";;;===", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Match(tt.header)
			assert.Equal(t, tt.want, got)
			assert.True(t, s.Supported(got))
		})
	}
}

func TestMatch_NorwegianAliases(t *testing.T) {
	s, err := NewSet([]string{"en", "da", "no", "sv"}, "en")
	require.NoError(t, err)
	for header, want := range map[string]string{
		"nb-NO":             "no",
		"nb":                "no",
		"nn-NO,nn;q=0.9":    "no",
		"no":                "no",
		"da-DK":             "da",
		"ja;q=0.9,nb;q=0.8": "no",
	} {
		assert.Equal(t, want, s.Match(header), header)
	}

	// A site that lists nb keeps it.
	s, err = NewSet([]string{"en", "nb", "no"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "nb", s.Match("nb-NO"))
}

func TestNegotiate_CookieWins(t *testing.T) {
	s := testSet(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "fr")
	r.AddCookie(&http.Cookie{Name: "locale", Value: "de"})

	assert.Equal(t, "de", s.Negotiate(r, "locale"))
}

func TestNegotiate_BadCookieFallsThrough(t *testing.T) {
	s := testSet(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "fr")
	r.AddCookie(&http.Cookie{Name: "locale", Value: "xx-bogus"})

	assert.Equal(t, "fr", s.Negotiate(r, "locale"))
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "fr", "/settings")
	assert.Equal(t, "fr", FromContext(ctx))
	assert.Equal(t, "/settings", PathnameFromContext(ctx))
	assert.Equal(t, "", FromContext(context.Background()))
}
