package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "test-token")
	t.Setenv("LINE_CHANNEL_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 15*time.Minute, cfg.DedupTTL)
	assert.Equal(t, 2*time.Minute, cfg.InflightGrace)
	assert.Equal(t, 10*time.Minute, cfg.PushTTL)
	assert.Equal(t, 100, cfg.Bot.MaxEventsPerWebhook)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "")
	t.Setenv("LINE_CHANNEL_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LINE_CHANNEL_ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "LINE_CHANNEL_SECRET")
}

func TestLLMDisabledWithoutKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("USE_LLM", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.LLMEnabled, "LLM should degrade to disabled without an API key")
}

func TestUseLLMKillSwitch(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("USE_LLM", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.LLMEnabled)
}

func TestValidateDedupWindows(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEDUP_TTL", "1m")
	t.Setenv("DEDUP_INFLIGHT_GRACE", "2m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEDUP_INFLIGHT_GRACE")
}

func TestGetDurationEnvInvalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "not-a-duration")
	assert.Equal(t, 5*time.Second, getDurationEnv("SOME_DURATION", 5*time.Second))
}

func TestLoadProfileDefault(t *testing.T) {
	t.Parallel()

	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile.Name, p.Name)
	assert.True(t, strings.Contains(p.SystemPrompt(), p.Name))
}

func TestLoadProfileFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.json")
	content := `{"name":"テスト先生","voice":"ですます調","principles":["短く答える"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "テスト先生", p.Name)

	prompt := p.SystemPrompt()
	assert.Contains(t, prompt, "テスト先生")
	assert.Contains(t, prompt, "短く答える")
}

func TestLoadProfileMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
