// Package config loads environment configuration and builds the
// shared clients.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"
)

// Config carries every runtime setting. All values come from the
// environment, with a .env file loaded first when present.
type Config struct {
	Port          string
	SupabaseURL   string
	SupabaseKey   string
	StorageBucket string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	WhisperBin   string
	WhisperModel string
	FFmpegBin    string
	FFprobeBin   string
	YtdlpBin     string
	DetectorBin  string

	Workers     int
	QueueSize   int
	JobTimeout  time.Duration
	SweepEvery  time.Duration
	TempRoot    string
	MaxClips    int
	ClipMinSecs float64
	ClipMaxSecs float64
	PresignTTL  time.Duration
	FrameFPS    float64
}

// Load reads the environment. SUPABASE_URL, SUPABASE_SERVICE_KEY, and
// OPENAI_API_KEY are required; everything else has a default.
func Load() (Config, error) {
	// Missing .env is fine in production.
	_ = godotenv.Load()

	cfg := Config{
		Port:          envOr("PORT", "8080"),
		SupabaseURL:   os.Getenv("SUPABASE_URL"),
		SupabaseKey:   os.Getenv("SUPABASE_SERVICE_KEY"),
		StorageBucket: envOr("STORAGE_BUCKET", "videos"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		WhisperBin:    envOr("WHISPER_BIN", "whisper-cli"),
		WhisperModel:  envOr("WHISPER_MODEL", "models/ggml-base.en.bin"),
		FFmpegBin:     envOr("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:    envOr("FFPROBE_BIN", "ffprobe"),
		YtdlpBin:      envOr("YTDLP_BIN", "yt-dlp"),
		DetectorBin:   os.Getenv("DETECTOR_BIN"),
		Workers:       envInt("WORKERS", 4),
		QueueSize:     envInt("QUEUE_SIZE", 100),
		JobTimeout:    envDuration("JOB_TIMEOUT", 30*time.Minute),
		SweepEvery:    envDuration("SWEEP_INTERVAL", 5*time.Minute),
		TempRoot:      envOr("TEMP_ROOT", os.TempDir()),
		MaxClips:      envInt("MAX_CLIPS", 5),
		ClipMinSecs:   envFloat("CLIP_MIN_SECONDS", 20),
		ClipMaxSecs:   envFloat("CLIP_MAX_SECONDS", 30),
		PresignTTL:    envDuration("PRESIGN_TTL", time.Hour),
		FrameFPS:      envFloat("FRAME_FPS", 1),
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return Config{}, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}
	if cfg.OpenAIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY must be set")
	}
	return cfg, nil
}

// NewSupabaseClient connects to the configured project.
func (c Config) NewSupabaseClient() (*supa.Client, error) {
	client, err := supa.NewClient(c.SupabaseURL, c.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return client, nil
}

// InitLogger builds the shared structured logger.
func InitLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(envOr("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
