package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Agent.MaxIterations)
	assert.Equal(t, 30, cfg.Market.LookbackDays)
	assert.Equal(t, 30, cfg.Market.RequestsPerMinute)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"llm": {"model": "gpt-4o-mini"}, "agent": {"max_iterations": 3}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Agent.MaxIterations)
	// Untouched sections keep defaults.
	assert.Equal(t, "https://api.polygon.io", cfg.Market.BaseURL)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"market": {"api_key": "from-file"}}`), 0o600))

	t.Setenv("TICKERSCOUT_MARKET_API_KEY", "from-env")
	t.Setenv("TICKERSCOUT_SERVER_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Market.APIKey)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.LLM.Model = "claude-sonnet-4-5"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", loaded.LLM.Model)
}
