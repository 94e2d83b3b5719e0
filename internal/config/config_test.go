package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "documentos", cfg.DocsDir)
	assert.Equal(t, "leads.db", cfg.DBPath)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 120, cfg.CooldownSeconds)
	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.Equal(t, 300, cfg.MarketTTLSecs)
	require.Len(t, cfg.Models, 4)
	assert.Equal(t, "models/gemini-3-flash-preview", cfg.Models[0])
	assert.Equal(t, "models/gemini-flash-latest", cfg.Models[3])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEN_HTTP_ADDR", ":9090")
	t.Setenv("GEN_MODELS", "models/a, models/b")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"models/a", "models/b"}, cfg.Models)
}

func TestKeyStoreRoundTrip(t *testing.T) {
	ks := KeyStore{Dir: t.TempDir()}

	assert.Empty(t, ks.LoadAPIKey())
	require.NoError(t, ks.SaveAPIKey("AIza-test"))
	assert.Equal(t, "AIza-test", ks.LoadAPIKey())

	// Overwrite replaces, not appends.
	require.NoError(t, ks.SaveAPIKey("AIza-new"))
	assert.Equal(t, "AIza-new", ks.LoadAPIKey())
}

func TestKeyStoreIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, UserConfigFile), []byte("{broken"), 0o600))

	ks := KeyStore{Dir: dir}
	assert.Empty(t, ks.LoadAPIKey())
}
