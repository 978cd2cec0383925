package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, 10000, cfg.MaxTextLength)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 0.1, cfg.ModelC, 1e-12)
	assert.InDelta(t, 0.2, cfg.TestSplit, 1e-12)
	assert.False(t, cfg.StripAccents)
	assert.False(t, cfg.RemoveStopWords)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MODEL_C", "1.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.InDelta(t, 1.5, cfg.ModelC, 1e-12)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL must be"},
		{"bad gin mode", "GIN_MODE", "fast", "GIN_MODE must be"},
		{"zero rate limit", "RATE_LIMIT_PER_MIN", "0", "RATE_LIMIT_PER_MIN must be positive"},
		{"zero history", "HISTORY_SIZE", "0", "HISTORY_SIZE must be positive"},
		{"negative C", "MODEL_C", "-1", "MODEL_C must be positive"},
		{"split of one", "TEST_SPLIT", "1", "TEST_SPLIT must be within [0,1)"},
		{"zero batch", "MAX_BATCH_SIZE", "0", "MAX_BATCH_SIZE must be positive"},
		{"unparsable int", "MODEL_EPOCHS", "many", "failed to load environment variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			appErr := apperrors.ToAppError(err)
			assert.Equal(t, apperrors.CategoryConfiguration, appErr.Category)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	for in, want := range tests {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}
