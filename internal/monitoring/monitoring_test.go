package monitoring

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAnalysis(t *testing.T) {
	prom := NewPrometheus()
	m := NewMetrics().WithPrometheus(prom)

	m.RecordAnalysis("positive", false, 0.9, time.Millisecond)
	m.RecordAnalysis("negative", true, 0.2, time.Millisecond)
	m.RecordAnalysis("negative", false, 0.3, time.Millisecond)

	assert.Equal(t, map[string]int64{"positive": 1, "negative": 2}, m.GetLabelDistribution())
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.AnalysesTotal.WithLabelValues("negative", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.AnalysesTotal.WithLabelValues("negative", "false")))

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["analyses"])
	assert.Equal(t, int64(1), stats["overrides"])
	assert.InDelta(t, 100.0/3, stats["override_rate_percent"], 1e-9)
}

func TestMetricsRecordTraining(t *testing.T) {
	prom := NewPrometheus()
	m := NewMetrics().WithPrometheus(prom)

	m.RecordTraining(true, 0.87, time.Second)
	m.RecordTraining(false, 0, time.Second)

	assert.Equal(t, 0.87, testutil.ToFloat64(prom.ModelAccuracy))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.TrainingRuns.WithLabelValues("failure")))
	assert.Equal(t, int64(2), m.GetStats()["training_runs"])
	assert.Equal(t, int64(1), m.GetStats()["training_failures"])
}

func TestMetricsWithoutPrometheus(t *testing.T) {
	m := NewMetrics()

	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementRateLimitBlock("memory")
	m.RecordHTTP("GET", "/health", 200, time.Millisecond)
	m.RecordHTTP("POST", "/api/v1/analyze", 400, 3*time.Millisecond)

	stats := m.GetStats()
	assert.Equal(t, 50.0, stats["cache_hit_rate_percent"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, map[int]int64{200: 1, 400: 1}, m.GetStatusCodeDistribution())
	assert.Equal(t, 3*time.Millisecond, m.GetPercentileResponseTime(100))
}

func TestPercentileEmpty(t *testing.T) {
	assert.Zero(t, NewMetrics().GetPercentileResponseTime(95))
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)
	prom := NewPrometheus()
	metrics := NewMetrics().WithPrometheus(prom)

	router := gin.New()
	router.Use(RequestIDMiddleware(), MonitoringMiddleware(metrics, logger))
	router.GET("/items/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/7", nil))

	assert.Equal(t, int64(1), metrics.RequestCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("GET", "/items/:id", "404")))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.Split(strings.TrimSpace(buf.String()), "\n")[0]), &line))
	assert.Equal(t, "HTTP Request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Contains(t, line, "timestamp")
	assert.Contains(t, line, "request_id")
}

func TestPrometheusHandler(t *testing.T) {
	prom := NewPrometheus()
	NewMetrics().WithPrometheus(prom).RecordAnalysis("neutral", false, 0.5, time.Millisecond)

	w := httptest.NewRecorder()
	prom.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "review_sentiment_analysis_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestSuspiciousUserAgent(t *testing.T) {
	assert.True(t, containsSuspiciousUserAgent("Mozilla sqlmap/1.0"))
	assert.True(t, containsSuspiciousUserAgent("NIKTO"))
	assert.False(t, containsSuspiciousUserAgent("Mozilla/5.0"))
}

func TestAnalysisLoggerOmitsText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.AnalysisLogger(42, 2, 0.31, "negative", true, time.Millisecond)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(42), line["text_length"])
	assert.Equal(t, true, line["overridden"])
	assert.NotContains(t, line, "text")
}
