// Copyright 2026 The pureflashblade-mcp Authors

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pureflashblade/pureflashblade-mcp/fberrors"
)

const configYAML = `
request_timeout: 10s
default_array: FB01
arrays:
  fb01:
    host: 10.0.0.5
    api_token: T-1111
  fb02:
    host: fb02.example.com
    api_token: VC03MmE1ZjFjMi03YjE3LTRhMGItOWE1NS02ZjJhMWU0YTdmMTA=
    verify_ssl: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "pureflashblade.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte(content), 0600))
	return file
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"HOST", "API_TOKEN", "VERIFY_SSL", "REQUEST_TIMEOUT", "SESSION_TTL", "DEFAULT_ARRAY", "HTTP_LISTEN"} {
		t.Setenv(EnvPrefix+"_"+key, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, configYAML), nil)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, DefaultHTTPListen, cfg.HTTPListen)
	assert.Equal(t, "fb01", cfg.DefaultArray)
	assert.Equal(t, []string{"fb01", "fb02"}, cfg.ProfileNames())

	fb02, err := cfg.Profile("FB02")
	require.NoError(t, err)
	assert.Equal(t, "fb02.example.com", fb02.Host)
	assert.Equal(t, "T-72a5f1c2-7b17-4a0b-9a55-6f2a1e4a7f10", fb02.APIToken)
	assert.True(t, fb02.VerifySSL)

	def, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", def.Host)
	assert.NotContains(t, def.String(), "T-1111")

	_, err = cfg.Profile("fb09")
	assert.Equal(t, fberrors.NotFound, fberrors.CodeOf(err))
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUREFB_HOST", "10.0.0.9")
	t.Setenv("PUREFB_API_TOKEN", "T-env")
	t.Setenv("PUREFB_VERIFY_SSL", "true")
	t.Setenv("PUREFB_SESSION_TTL", "1m")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.SessionTTL)
	assert.Equal(t, "", cfg.File)

	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, ArrayProfile{Host: "10.0.0.9", APIToken: "T-env", VerifySSL: true}, p)
}

func TestLoadFlagsOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUREFB_HTTP_LISTEN", ":9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", DefaultHTTPListen, "")
	flags.Duration("request-timeout", DefaultRequestTimeout, "")
	require.NoError(t, flags.Parse([]string{"--request-timeout=5s"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	// unchanged flag does not beat the environment
	assert.Equal(t, ":9000", cfg.HTTPListen)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"Test profile without host", "arrays:\n  fb01:\n    api_token: T-1\n"},
		{"Test profile without token", "arrays:\n  fb01:\n    host: 10.0.0.5\n"},
		{"Test unknown default array", "default_array: fb09\narrays:\n  fb01:\n    host: h\n    api_token: T-1\n"},
		{"Test malformed yaml", "arrays: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Equal(t, fberrors.InvalidArgument, fberrors.CodeOf(err))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Equal(t, fberrors.NotFound, fberrors.CodeOf(err))
	_, err = Load(t.TempDir(), nil)
	assert.Equal(t, fberrors.NotFound, fberrors.CodeOf(err))
}

func TestProfileSingleAndNone(t *testing.T) {
	cfg := &Config{Arrays: map[string]ArrayProfile{"lab": {Host: "h", APIToken: "t"}}}
	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "h", p.Host)

	cfg = &Config{Arrays: map[string]ArrayProfile{"a": {Host: "a"}, "b": {Host: "b"}}}
	_, err = cfg.Profile("")
	assert.Equal(t, fberrors.NotFound, fberrors.CodeOf(err))
}

func TestStoreReload(t *testing.T) {
	clearEnv(t)
	file := writeConfig(t, configYAML)
	store, err := NewStore(file, nil)
	require.NoError(t, err)
	defer store.Close()

	reloaded := make(chan *Config, 1)
	store.OnReload(func(cfg *Config) { reloaded <- cfg })

	// a broken file keeps the previous configuration
	require.NoError(t, ioutil.WriteFile(file, []byte("arrays: [\n"), 0600))
	assert.Error(t, store.Reload())
	assert.Len(t, store.Get().Arrays, 2)

	require.NoError(t, ioutil.WriteFile(file, []byte("arrays:\n  fb03:\n    host: h3\n    api_token: T-3\n"), 0600))
	require.NoError(t, store.Reload())
	assert.Equal(t, []string{"fb03"}, store.Get().ProfileNames())
	assert.Equal(t, []string{"fb03"}, (<-reloaded).ProfileNames())
}

func TestStoreWatch(t *testing.T) {
	clearEnv(t)
	file := writeConfig(t, configYAML)
	store, err := NewStore(file, nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Watch())

	require.NoError(t, ioutil.WriteFile(file, []byte("arrays:\n  fb04:\n    host: h4\n    api_token: T-4\n"), 0600))
	assert.Eventually(t, func() bool {
		_, err := store.Get().Profile("fb04")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStaticStore(t *testing.T) {
	store := StaticStore(&Config{})
	assert.NotNil(t, store.Get().Arrays)
	assert.NoError(t, store.Reload())
	assert.NoError(t, store.Watch())
	store.Close()
}
