package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration. It is loaded once in main and
// passed by handle into every component; leaf code never reads env vars.
type Config struct {
	Port        string
	DatabaseURL string

	// Speech-to-text (APIMart)
	APIMartKey      string
	APIMartSTTURL   string
	APIMartModel    string
	APIMartLanguage string
	APIMartPrompt   string

	// Object storage (OSS legacy signing)
	OSSRegion        string
	OSSBucket        string
	OSSAccessKeyID   string
	OSSAccessSecret  string
	OSSPublicBaseURL string
	OSSACLDisabled   bool

	// Chat / summarization providers
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	APIMartChatURL string
	ChatProvider   string

	// Media pipeline
	FFmpegPath         string
	UploadMaxBytes     int64
	OptimizeThreshold  int64
	SegmentMinBytes    int64
	SegmentSeconds     int
	SegmentEnabled     bool
	SampleRate         int
	Bitrate            string
	Concurrency        int
	SimplifyTranscript bool
	HistoryEnabled     bool
}

// Load builds the configuration from environment variables. Optional values
// fall back to defaults; required values for the ingestion pipeline are
// checked lazily via CheckIngest so the server (and its health endpoints)
// can still start without them.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		APIMartKey:      os.Getenv("APIMART_API_KEY"),
		APIMartSTTURL:   getEnv("APIMART_STT_URL", "https://api.apimart.ai/v1/audio/transcriptions"),
		APIMartModel:    getEnv("APIMART_STT_MODEL", "whisper-1"),
		APIMartLanguage: os.Getenv("APIMART_STT_LANGUAGE"),
		APIMartPrompt:   os.Getenv("APIMART_STT_PROMPT"),

		OSSRegion:        os.Getenv("OSS_REGION"),
		OSSBucket:        os.Getenv("OSS_BUCKET"),
		OSSAccessKeyID:   os.Getenv("OSS_ACCESS_KEY_ID"),
		OSSAccessSecret:  os.Getenv("OSS_ACCESS_KEY_SECRET"),
		OSSPublicBaseURL: strings.TrimRight(os.Getenv("OSS_PUBLIC_BASE_URL"), "/"),
		OSSACLDisabled:   getBool("OSS_ACL_DISABLED", false),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		APIMartChatURL: getEnv("APIMART_CHAT_URL", "https://api.apimart.ai/v1"),
		ChatProvider:   getEnv("CHAT_PROVIDER", "openai"),

		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		UploadMaxBytes:     getMB("UPLOAD_MAX_MB", 50),
		OptimizeThreshold:  getMB("AUDIO_OPTIMIZE_THRESHOLD_MB", 15),
		SegmentMinBytes:    getMB("AUDIO_SEGMENT_MIN_MB", 18),
		SegmentSeconds:     getInt("AUDIO_SEGMENT_SECONDS", 600),
		SegmentEnabled:     getBool("AUDIO_SEGMENT_ENABLED", true),
		SampleRate:         getInt("AUDIO_SAMPLE_RATE", 16000),
		Bitrate:            getEnv("AUDIO_BITRATE", "48k"),
		Concurrency:        getInt("STT_CONCURRENCY", 4),
		SimplifyTranscript: getBool("SIMPLIFY_TRANSCRIPT", false),
		HistoryEnabled:     getBool("HISTORY_ENABLED", true),
	}

	if cfg.SegmentSeconds <= 0 {
		return nil, fmt.Errorf("AUDIO_SEGMENT_SECONDS must be positive, got %d", cfg.SegmentSeconds)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return cfg, nil
}

// CheckIngest verifies the configuration required by the transcription
// pipeline. It runs before any network call so a misconfigured deployment
// fails the whole request up front.
func (c *Config) CheckIngest() error {
	var missing []string
	if c.APIMartKey == "" {
		missing = append(missing, "APIMART_API_KEY")
	}
	if c.OSSRegion == "" {
		missing = append(missing, "OSS_REGION")
	}
	if c.OSSBucket == "" {
		missing = append(missing, "OSS_BUCKET")
	}
	if c.OSSAccessKeyID == "" {
		missing = append(missing, "OSS_ACCESS_KEY_ID")
	}
	if c.OSSAccessSecret == "" {
		missing = append(missing, "OSS_ACCESS_KEY_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getMB(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback * 1024 * 1024
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback * 1024 * 1024
	}
	return n * 1024 * 1024
}

func getBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
