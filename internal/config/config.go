package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port          string
	AllowedOrigin string
	LogLevel      string
	// Chat
	HistorySize    int
	PhrasebookFile string
	// OpenAI (summaries, speech-to-text, fallback text-to-speech)
	OpenAIAPIKey   string
	Model          string
	TTSModel       string
	TTSVoice       string
	STTModel       string
	ElevenAPIKey   string
	ElevenVoiceID  string
	ElevenModel    string
	VoiceTimeout   time.Duration
	VoiceEnabled   bool
	AudioPlayer    []string
	// Database (optional transcript archive)
	DatabaseURL string
	// Search
	SearchEngines    []string
	SearchTimeout    time.Duration
	WebResults       int
	VideoResults     int
	SummarySentences int
	UserAgent        string
	// YouTube Data API; either a key or an OAuth client + token file
	YouTubeAPIKey       string
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeTokenFile    string
	// Document summarization
	ChunkSize int
	MinLength int
	MaxLength int
	MaxChunks int
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:                getEnvDefault("PORT", "8080"),
		AllowedOrigin:       getEnvDefault("ALLOWED_ORIGIN", "*"),
		LogLevel:            getEnvDefault("LOG_LEVEL", "info"),
		HistorySize:         getEnvIntDefault("HISTORY_SIZE", 40),
		PhrasebookFile:      os.Getenv("PHRASEBOOK_FILE"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		Model:               getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		TTSModel:            getEnvDefault("OPENAI_TTS_MODEL", "tts-1"),
		TTSVoice:            getEnvDefault("OPENAI_TTS_VOICE", "alloy"),
		STTModel:            getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		ElevenAPIKey:        os.Getenv("ELEVEN_API_KEY"),
		ElevenVoiceID:       os.Getenv("ELEVEN_VOICE_ID"),
		ElevenModel:         getEnvDefault("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
		VoiceTimeout:        getEnvDurationDefault("VOICE_TIMEOUT", 7*time.Second),
		VoiceEnabled:        getEnvBoolDefault("VOICE_ENABLED", true),
		AudioPlayer:         strings.Fields(os.Getenv("AUDIO_PLAYER")),
		DatabaseURL:         os.Getenv("DB_URL"),
		SearchEngines:       getEnvListDefault("SEARCH_ENGINES", []string{"duckduckgo", "bing", "brave"}),
		SearchTimeout:       getEnvDurationDefault("SEARCH_TIMEOUT", 10*time.Second),
		WebResults:          getEnvIntDefault("WEB_SEARCH_RESULTS", 5),
		VideoResults:        getEnvIntDefault("YOUTUBE_RESULTS", 3),
		SummarySentences:    getEnvIntDefault("SUMMARY_SENTENCES", 3),
		UserAgent:           getEnvDefault("USER_AGENT", defaultUserAgent),
		YouTubeAPIKey:       os.Getenv("YOUTUBE_API_KEY"),
		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeTokenFile:    getEnvDefault("YOUTUBE_TOKEN_FILE", "data/youtube_token.json"),
		ChunkSize:           getEnvIntDefault("PDF_CHUNK_SIZE", 1000),
		MinLength:           getEnvIntDefault("PDF_MIN_LENGTH", 40),
		MaxLength:           getEnvIntDefault("PDF_MAX_LENGTH", 130),
		MaxChunks:           getEnvIntDefault("PDF_MAX_CHUNKS", 5),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; summaries and speech-to-text are unavailable")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Msg("ignoring invalid integer setting")
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("8s") or plain seconds ("8").
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", key).Str("value", v).Msg("ignoring invalid duration setting")
	return def
}
