package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	return f[ref], nil
}

func writeConf(t *testing.T, yaml string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	t.Setenv("POLLSPACE_ROOT", root)
}

func TestLoad_Defaults(t *testing.T) {
	writeConf(t, `
database:
  dsn: "app:%s@tcp(127.0.0.1:3306)/pollspace?parseTime=true"
  password: hunter2
`)
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "en", cfg.Locale.Default)
	assert.Equal(t, "locale", cfg.Locale.CookieName)
	assert.Equal(t, ModeOpen, cfg.Routing.Mode)
	assert.Equal(t, []string{"/"}, cfg.Routing.EntryPaths)
	assert.Equal(t, 60*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Contains(t, cfg.Locale.Supported, "fr")
	assert.Equal(t, "app:hunter2@tcp(127.0.0.1:3306)/pollspace?parseTime=true", cfg.Database.ResolvedDSN())
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverlay(t *testing.T) {
	writeConf(t, `
database:
  dsn: "app@tcp(db)/pollspace"
routing:
  mode: open
`)
	t.Setenv("POLLSPACE_ROUTING__MODE", "gated")
	t.Setenv("POLLSPACE_ROUTING__LOGIN_PATH", "/signin")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeGated, cfg.Routing.Mode)
	assert.Equal(t, "/signin", cfg.Routing.LoginPath)
}

func TestLoad_VaultRefs(t *testing.T) {
	writeConf(t, `
database:
  dsn: "app:%s@tcp(db)/pollspace"
  password: "vault:kv/pollspace/db#password"
auth:
  secret: "vault:kv/pollspace/auth#secret"
`)
	orig := newResolver
	t.Cleanup(func() { newResolver = orig })
	newResolver = func(context.Context) (SecretResolver, error) {
		return fakeResolver{
			"vault:kv/pollspace/db#password": "s3cret",
			"vault:kv/pollspace/auth#secret": "signing-key",
		}, nil
	}

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "signing-key", cfg.Auth.Secret)
}

func TestLoad_InvalidDefaultLocale(t *testing.T) {
	writeConf(t, `
database:
  dsn: "app@tcp(db)/pollspace"
locale:
  supported: [en, fr]
  default: de
`)
	_, err := Load(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "locale.default"))
}

func TestLoad_BadMode(t *testing.T) {
	writeConf(t, `
database:
  dsn: "app@tcp(db)/pollspace"
routing:
  mode: closed
`)
	_, err := Load(context.Background())
	require.Error(t, err)
}
