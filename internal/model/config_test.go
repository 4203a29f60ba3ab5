package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoh/bookstore-tui/internal/model"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "default", cfg.Display.Theme)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.CachePath)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  base_url: https://bookstore.example.com
log:
  level: debug
`), 0o644))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://bookstore.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "default", cfg.Display.Theme)
}

func TestLoadConfigEnvOverridesBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  base_url: http://from-file\n"), 0o644))

	t.Setenv("TKOH_BASE_URL", "http://from-env:9090")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:9090", cfg.Server.BaseURL)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &model.AppConfig{
		Server:    model.ServerConfig{BaseURL: "http://10.0.0.5:8080"},
		Display:   model.DisplayConfig{Theme: "dark"},
		Log:       model.LogConfig{Level: "warn", File: "/tmp/tkoh.log"},
		CachePath: "/tmp/cache.db",
	}
	require.NoError(t, model.SaveConfig(path, want))

	got, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
