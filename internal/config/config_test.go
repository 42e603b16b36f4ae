package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from a directory without a config file so defaults apply.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "local-biz.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, int64(8192), cfg.AI.Anthropic.MaxTokens)
	assert.Equal(t, 1, cfg.Generation.TemplatesPerBusiness)
	assert.Equal(t, 3, cfg.Hosting.PollIntervalSecs)
	assert.Equal(t, 120, cfg.Hosting.PollTimeoutSecs)
	assert.Equal(t, 20, cfg.Discovery.MaxResultsPerSearch)
	assert.True(t, cfg.Discovery.RequireOperational)
	assert.Equal(t, "info", cfg.Log.Level)

	// No credentials by default: every adapter starts in mock mode.
	assert.Empty(t, cfg.Places.Key)
	assert.Empty(t, cfg.AI.Anthropic.Key)
	assert.Empty(t, cfg.Hosting.Token)
}

func TestLoadFromEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("LOCALBIZ_STORE_DRIVER", "postgres")
	t.Setenv("LOCALBIZ_PLACES_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "test-key", cfg.Places.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
