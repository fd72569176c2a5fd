package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"
)

// Config keeps runtime settings for the race calendar bot.
type Config struct {
	Env             string
	TelegramToken   string
	GatewayURL      string
	DatabaseURL     string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	// DigestTime is "HH:MM"; empty disables the daily digest.
	DigestTime   string
	MetricsPort  int
	ImagePattern string
	ImageCount   int
}

// Load reads configuration from an optional .env file and environment
// variables with sane defaults.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Env:             strings.TrimSpace(os.Getenv("ENV")),
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		GatewayURL:      strings.TrimSpace(os.Getenv("GATEWAY_URL")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RefreshInterval: parseDuration(os.Getenv("REFRESH_INTERVAL")),
		RequestTimeout:  parseDuration(os.Getenv("REQUEST_TIMEOUT")),
		DigestTime:      strings.TrimSpace(os.Getenv("DIGEST_TIME")),
		MetricsPort:     parseInt(os.Getenv("METRICS_PORT")),
		ImagePattern:    strings.TrimSpace(os.Getenv("IMAGE_PATTERN")),
		ImageCount:      parseInt(os.Getenv("IMAGE_COUNT")),
	}

	if cfg.Env == "" {
		cfg.Env = EnvLocal
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = "http://localhost:3000"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "race_calendar.db"
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 10 * time.Minute
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	switch strings.ToLower(cfg.DigestTime) {
	case "":
		cfg.DigestTime = "08:00"
	case "off", "none", "disabled":
		cfg.DigestTime = ""
	}
	if cfg.ImagePattern == "" {
		cfg.ImagePattern = "/images/newEvent0%d.jpg"
	}
	if cfg.ImageCount <= 0 {
		cfg.ImageCount = 4
	}

	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return cfg, fmt.Errorf("unknown ENV %q", cfg.Env)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseDuration(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func parseInt(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
