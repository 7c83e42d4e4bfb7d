package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SEARCH_ENGINES", "")
	t.Setenv("SEARCH_TIMEOUT", "")
	t.Setenv("WEB_SEARCH_RESULTS", "")
	t.Setenv("PDF_CHUNK_SIZE", "")
	t.Setenv("VOICE_ENABLED", "")

	cfg := Load()
	assert.Equal(t, []string{"duckduckgo", "bing", "brave"}, cfg.SearchEngines)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 5, cfg.WebResults)
	assert.Equal(t, 3, cfg.VideoResults)
	assert.Equal(t, 3, cfg.SummarySentences)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 40, cfg.MinLength)
	assert.Equal(t, 130, cfg.MaxLength)
	assert.Equal(t, 5, cfg.MaxChunks)
	assert.True(t, cfg.VoiceEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEARCH_ENGINES", " bing , brave,,")
	t.Setenv("SEARCH_TIMEOUT", "4")
	t.Setenv("VOICE_TIMEOUT", "1500ms")
	t.Setenv("WEB_SEARCH_RESULTS", "8")
	t.Setenv("VOICE_ENABLED", "off")
	t.Setenv("AUDIO_PLAYER", "mpg123 -q -")

	cfg := Load()
	assert.Equal(t, []string{"bing", "brave"}, cfg.SearchEngines)
	assert.Equal(t, 4*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.VoiceTimeout)
	assert.Equal(t, 8, cfg.WebResults)
	assert.False(t, cfg.VoiceEnabled)
	assert.Equal(t, []string{"mpg123", "-q", "-"}, cfg.AudioPlayer)
}

func TestEnvHelpers_Invalid(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")
	assert.Equal(t, 7, getEnvIntDefault("X_INT", 7))
	assert.Equal(t, time.Second, getEnvDurationDefault("X_DUR", time.Second))
	assert.True(t, getEnvBoolDefault("X_BOOL", true))
}
