package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	DBURL             string
	LogLevel          string
	ReportTimezone    string
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	FeedbackRateRPS   float64
	FeedbackRateBurst int

	PhotoDir      string
	PhotoMaxBytes int64

	AlertWebhookURL         string
	AlertWebhookAPIKey      string
	AlertWebhookTimeoutSecs int
}

// Location resolves ReportTimezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadDotEnv populates the environment from the given files, ignoring files that do
// not exist. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		DBURL:                   os.Getenv("DB_URL"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		ReportTimezone:          getEnv("REPORT_TIMEZONE", "UTC"),
		ReadTimeoutSecs:         getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:        getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:         getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:              getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:              getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:           getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:           getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:       getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:        getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		FeedbackRateRPS:         getEnvFloat("FEEDBACK_RATE_LIMIT_RPS", 2),
		FeedbackRateBurst:       getEnvInt("FEEDBACK_RATE_LIMIT_BURST", 5),
		PhotoDir:                getEnv("PHOTO_DIR", "./data/photos"),
		PhotoMaxBytes:           int64(getEnvInt("PHOTO_MAX_BYTES", 5<<20)),
		AlertWebhookURL:         os.Getenv("ALERT_WEBHOOK_URL"),
		AlertWebhookAPIKey:      os.Getenv("ALERT_WEBHOOK_API_KEY"),
		AlertWebhookTimeoutSecs: getEnvInt("ALERT_WEBHOOK_TIMEOUT_SECS", 5),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if _, err := time.LoadLocation(cfg.ReportTimezone); err != nil {
		return Config{}, fmt.Errorf("REPORT_TIMEZONE is invalid: %w", err)
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.FeedbackRateRPS <= 0 {
		return Config{}, fmt.Errorf("FEEDBACK_RATE_LIMIT_RPS must be positive")
	}
	if cfg.FeedbackRateBurst <= 0 {
		return Config{}, fmt.Errorf("FEEDBACK_RATE_LIMIT_BURST must be positive")
	}
	if cfg.PhotoMaxBytes <= 0 {
		return Config{}, fmt.Errorf("PHOTO_MAX_BYTES must be positive")
	}
	if cfg.AlertWebhookURL != "" && cfg.AlertWebhookTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("ALERT_WEBHOOK_TIMEOUT_SECS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
