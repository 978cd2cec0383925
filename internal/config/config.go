package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
)

// Config holds every runtime setting of the server and CLI
type Config struct {
	Port     string `env:"PORT" default:"8080"`
	DataDir  string `env:"DATA_DIR" default:"./data"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`
	GinMode  string `env:"GIN_MODE" default:"release"`

	LexiconFile string `env:"LEXICON_FILE"`
	TrainingCSV string `env:"TRAINING_CSV"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`

	RateLimitPerMin int           `env:"RATE_LIMIT_PER_MIN" default:"60"`
	CacheTTL        time.Duration `env:"CACHE_TTL" default:"5m"`
	HistorySize     int           `env:"HISTORY_SIZE" default:"100"`
	CORSOrigins     string        `env:"CORS_ORIGINS" default:"*"`
	EnableHSTS      bool          `env:"ENABLE_HSTS" default:"false"`
	MaxTextLength   int           `env:"MAX_TEXT_LENGTH" default:"10000"`
	MaxBatchSize    int           `env:"MAX_BATCH_SIZE" default:"100"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" default:"30s"`
	EnableProfiling bool          `env:"ENABLE_PROFILING" default:"false"`

	ModelC          float64 `env:"MODEL_C" default:"0.1"`
	ModelEpochs     int     `env:"MODEL_EPOCHS" default:"30"`
	TestSplit       float64 `env:"TEST_SPLIT" default:"0.2"`
	StripAccents    bool    `env:"STRIP_ACCENTS" default:"false"`
	RemoveStopWords bool    `env:"REMOVE_STOPWORDS" default:"false"`
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load environment variables", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigurationError("PORT is required", nil)
	}
	if c.DataDir == "" {
		return apperrors.NewConfigurationError("DATA_DIR is required", nil)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel), nil)
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("GIN_MODE must be debug, release or test, got %q", c.GinMode), nil)
	}

	if c.RateLimitPerMin <= 0 {
		return apperrors.NewConfigurationError("RATE_LIMIT_PER_MIN must be positive", nil)
	}
	if c.HistorySize <= 0 {
		return apperrors.NewConfigurationError("HISTORY_SIZE must be positive", nil)
	}
	if c.MaxTextLength <= 0 {
		return apperrors.NewConfigurationError("MAX_TEXT_LENGTH must be positive", nil)
	}
	if c.MaxBatchSize <= 0 {
		return apperrors.NewConfigurationError("MAX_BATCH_SIZE must be positive", nil)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.NewConfigurationError("REQUEST_TIMEOUT must be positive", nil)
	}
	if c.CacheTTL < 0 {
		return apperrors.NewConfigurationError("CACHE_TTL must not be negative", nil)
	}
	if c.ModelC <= 0 {
		return apperrors.NewConfigurationError("MODEL_C must be positive", nil)
	}
	if c.ModelEpochs <= 0 {
		return apperrors.NewConfigurationError("MODEL_EPOCHS must be positive", nil)
	}
	if c.TestSplit < 0 || c.TestSplit >= 1 {
		return apperrors.NewConfigurationError("TEST_SPLIT must be within [0,1)", nil)
	}

	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AllowedOrigins splits CORS_ORIGINS on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
