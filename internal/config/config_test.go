package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "https://api.exa.ai", cfg.Exa.BaseURL)
	assert.Equal(t, "exa-pro", cfg.Exa.Model)
	assert.Empty(t, cfg.Exa.SystemPrompt)
	assert.False(t, cfg.Exa.IncludeText)
	assert.Equal(t, 60*time.Second, cfg.Relay.MaxDuration)
	assert.False(t, cfg.Tracer.Enabled)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("EXA_API_KEY", "secret")
	t.Setenv("EXAANSWER_SERVER_PORT", "9090")
	t.Setenv("EXAANSWER_RELAY_MAX_DURATION", "90s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Exa.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Relay.MaxDuration)
}

func TestLoadPrefixedAPIKeyWins(t *testing.T) {
	t.Setenv("EXA_API_KEY", "plain")
	t.Setenv("EXAANSWER_EXA_API_KEY", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Exa.APIKey)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	data := []byte(`
server:
  port: 7070
exa:
  model: exa
  user_agent: relay-test/1.0
  system_prompt: Answer briefly.
  include_text: true
tracer:
  enabled: true
  exporter: stdout
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "exa", cfg.Exa.Model)
	assert.Equal(t, "relay-test/1.0", cfg.Exa.UserAgent)
	assert.Equal(t, "Answer briefly.", cfg.Exa.SystemPrompt)
	assert.True(t, cfg.Exa.IncludeText)
	assert.True(t, cfg.Tracer.Enabled)
	assert.Equal(t, "stdout", cfg.Tracer.Exporter)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
