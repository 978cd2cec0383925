package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
	"github.com/ZanzyTHEbar/review-sentiment/internal/cache"
	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
	"github.com/ZanzyTHEbar/review-sentiment/internal/database"
	"github.com/ZanzyTHEbar/review-sentiment/internal/lexicon"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
	"github.com/ZanzyTHEbar/review-sentiment/internal/ratelimit"
	"github.com/ZanzyTHEbar/review-sentiment/internal/security"
	"github.com/ZanzyTHEbar/review-sentiment/internal/service"
)

type testEnv struct {
	handler http.Handler
	cache   *cache.Cache
	metrics *monitoring.Metrics
}

func newTestEnv(t *testing.T, baseline classifier.Predictor, limits ratelimit.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	corpus := database.NewCorpusService(database.NewRepository(db))

	metrics := monitoring.NewMetrics().WithPrometheus(monitoring.NewPrometheus())
	logger := monitoring.NewLoggerWithWriter(&bytes.Buffer{}, slog.LevelError)

	holderCfg := service.DefaultHolderConfig()
	holderCfg.Train.TestSplit = 0
	holder := service.NewModelHolder(corpus, holderCfg, baseline, metrics, logger)
	svc := service.NewService(analysis.NewAnalyzer(lexicon.MustDefault()), holder, service.NewHistory(50), metrics, logger)

	appCache := cache.NewCache(time.Minute)
	t.Cleanup(appCache.Close)

	redisClient, err := ratelimit.NewRedisClient("", "", 0)
	require.NoError(t, err)
	limiter := ratelimit.NewRateLimiter(redisClient, limits, metrics)
	t.Cleanup(limiter.Close)

	secCfg := security.DefaultSecurityConfig()
	secCfg.MaxBatchSize = 5

	srv := New(Options{
		Service:        svc,
		Corpus:         corpus,
		DB:             db,
		Cache:          appCache,
		Limiter:        limiter,
		Security:       security.NewSecurityMiddleware(secCfg),
		Metrics:        metrics,
		Prometheus:     metrics.Prometheus(),
		Logger:         logger,
		AllowedOrigins: []string{"*"},
	})

	return &testEnv{handler: srv.Handler(), cache: appCache, metrics: metrics}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func labeledCorpus() []map[string]string {
	var reviews []map[string]string
	for i := 0; i < 4; i++ {
		reviews = append(reviews,
			map[string]string{"text": fmt.Sprintf("excellent amazing phone %d", i), "label": "positive"},
			map[string]string{"text": fmt.Sprintf("terrible awful junk %d", i), "label": "NEGATIVE"},
			map[string]string{"text": fmt.Sprintf("average okay gadget %d", i), "label": "neutral"},
		)
	}
	return reviews
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())

	w := env.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "vader-baseline", body["model"])
	assert.Equal(t, false, body["model_trained"])
	assert.NotEmpty(t, w.Header().Get(monitoring.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAnalyzeEndpoint(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())
	req := map[string]string{"text": "The battery is amazing. The price is awful."}

	w := env.do(http.MethodPost, "/api/v1/analyze", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var result service.AnalysisResult
	decode(t, w, &result)
	assert.InDelta(t, 0.525, result.OverallScore, 1e-9)
	assert.Equal(t, "vader-baseline", result.Model)
	assert.True(t, result.Reconciliation.FinalLabel.Valid())
	assert.Len(t, result.Aspects, 8)
	assert.NotEmpty(t, result.Emotion)

	w = env.do(http.MethodPost, "/api/v1/analyze", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, int64(1), env.metrics.CacheHits)

	w = env.do(http.MethodGet, "/api/v1/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		History []service.AnalysisResult `json:"history"`
	}
	decode(t, w, &history)
	assert.Len(t, history.History, 1)
}

func TestAnalyzeKeepsComparisonSigns(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())
	text := "Battery lasts <3 hours. The price is terrible. Shipping took >5 days"
	want := analysis.NewAnalyzer(lexicon.MustDefault()).Analyze(text)

	w := env.do(http.MethodPost, "/api/v1/analyze", map[string]string{"text": text})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.AnalysisResult
	decode(t, w, &result)
	assert.Equal(t, text, result.Text)
	assert.Equal(t, 3, result.Sentences)
	assert.InDelta(t, want.OverallScore, result.OverallScore, 1e-9)
	assert.InDelta(t, 0.1, want.AspectScores()["Value for Money"], 1e-9)
	assert.Equal(t, want.AspectScores(), analysis.Result{Aspects: result.Aspects}.AspectScores())
}

func TestAnalyzeValidation(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{name: "missing text", body: map[string]string{}, wantCode: http.StatusBadRequest},
		{name: "blank text", body: map[string]string{"text": "   "}, wantCode: http.StatusBadRequest},
		{name: "markup only", body: map[string]string{"text": "<b></b>"}, wantCode: http.StatusBadRequest},
		{name: "control characters", body: map[string]string{"text": "bad\x01text"}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/analyze", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())

			var body map[string]interface{}
			decode(t, w, &body)
			assert.Equal(t, "validation", body["category"])
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("text=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestAnalyzeWithoutModel(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	w := env.do(http.MethodPost, "/api/v1/analyze", map[string]string{"text": "Good phone."})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "model", body["category"])
}

func TestBatchAnalyzeEndpoint(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())

	w := env.do(http.MethodPost, "/api/v1/analyze/batch", map[string][]string{
		"texts": {"The battery is amazing.", "The support was terrible."},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var batch service.BatchResult
	decode(t, w, &batch)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, 2, batch.Summary.Total)

	w = env.do(http.MethodPost, "/api/v1/analyze/batch", map[string][]string{
		"texts": {"a", "b", "c", "d", "e", "f"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAspectsEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	w := env.do(http.MethodGet, "/api/v1/aspects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Aspects []struct {
			Name     string   `json:"name"`
			Keywords []string `json:"keywords"`
		} `json:"aspects"`
	}
	decode(t, w, &list)
	require.Len(t, list.Aspects, 8)
	assert.Equal(t, "Battery Life", list.Aspects[0].Name)

	// the rule engine needs no model
	w = env.do(http.MethodPost, "/api/v1/aspects", map[string]string{"text": "Shipping was terrible."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var scores struct {
		Aspects      map[string]float64 `json:"aspects"`
		OverallScore float64            `json:"overall_score"`
	}
	decode(t, w, &scores)
	assert.InDelta(t, 0.1, scores.Aspects["Shipping"], 1e-9)
	assert.InDelta(t, 0.5, scores.Aspects["Design"], 1e-9)
	assert.InDelta(t, 0.1, scores.OverallScore, 1e-9)
}

func TestReconcileEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	tests := []struct {
		name      string
		body      map[string]interface{}
		wantCode  int
		wantLabel string
		wantOver  bool
	}{
		{
			name:      "override positive on hostile text",
			body:      map[string]interface{}{"ml_label": "positive", "ml_probabilities": map[string]float64{"positive": 0.9}, "rule_score": 0.2},
			wantCode:  http.StatusOK,
			wantLabel: "negative",
			wantOver:  true,
		},
		{
			name:      "pass through",
			body:      map[string]interface{}{"ml_label": "neutral", "ml_probabilities": map[string]float64{"neutral": 0.6}, "rule_score": 0.9},
			wantCode:  http.StatusOK,
			wantLabel: "neutral",
		},
		{
			name:     "rule score out of range",
			body:     map[string]interface{}{"ml_label": "neutral", "rule_score": 1.5},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown label",
			body:     map[string]interface{}{"ml_label": "mixed", "rule_score": 0.5},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing rule score",
			body:     map[string]interface{}{"ml_label": "positive"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/reconcile", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var rec analysis.Reconciliation
			decode(t, w, &rec)
			assert.Equal(t, analysis.Label(tt.wantLabel), rec.FinalLabel)
			assert.Equal(t, tt.wantOver, rec.Overridden)
		})
	}
}

func TestReviewsAndTraining(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())

	w := env.do(http.MethodPost, "/api/v1/model/train", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/api/v1/reviews", map[string]interface{}{"reviews": labeledCorpus()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added struct {
		Added int `json:"added"`
		Total int `json:"total"`
	}
	decode(t, w, &added)
	assert.Equal(t, 12, added.Added)
	assert.Equal(t, 12, added.Total)

	w = env.do(http.MethodGet, "/api/v1/reviews/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats database.CorpusStats
	decode(t, w, &stats)
	assert.Equal(t, 4, stats.ByLabel[analysis.LabelNegative])

	w = env.do(http.MethodPost, "/api/v1/analyze", map[string]string{"text": "Great value."})
	require.Equal(t, http.StatusOK, w.Code)
	require.Positive(t, env.cache.Size())

	w = env.do(http.MethodPost, "/api/v1/model/train", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status service.ModelStatus
	decode(t, w, &status)
	assert.True(t, status.Trained)
	assert.Equal(t, "tfidf-linear-svm", status.Model)
	assert.Zero(t, env.cache.Size(), "model swap clears cached analyses")

	w = env.do(http.MethodGet, "/api/v1/model", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &status)
	assert.Equal(t, int64(2), status.TrainingRuns)
}

func TestAddReviewsValidation(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	w := env.do(http.MethodPost, "/api/v1/reviews", map[string]interface{}{
		"reviews": []map[string]string{
			{"text": "fine", "label": "neutral"},
			{"text": "meh", "label": "mixed"},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/v1/reviews/stats", nil)
	var stats database.CorpusStats
	decode(t, w, &stats)
	assert.Zero(t, stats.Total)
}

func TestHistoryLimitValidation(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/history?limit=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/history?limit=abc", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/history", nil).Code)
}

func TestTrainRateLimit(t *testing.T) {
	limits := ratelimit.DefaultConfig()
	limits.TrainLimit = 1
	env := newTestEnv(t, nil, limits)

	first := env.do(http.MethodPost, "/api/v1/model/train", nil)
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := env.do(http.MethodPost, "/api/v1/model/train", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMetricsAndStats(t *testing.T) {
	env := newTestEnv(t, classifier.NewVaderClassifier(), ratelimit.DefaultConfig())
	env.do(http.MethodPost, "/api/v1/analyze", map[string]string{"text": "Love it."})

	w := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "review_sentiment_analysis_total")

	w = env.do(http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]interface{}
	decode(t, w, &stats)
	for _, key := range []string{"metrics", "model", "cache", "rate_limit", "database"} {
		assert.Contains(t, stats, key)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t, nil, ratelimit.DefaultConfig())

	w := env.do(http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Review Sentiment API")
	assert.Contains(t, w.Body.String(), "/api/v1/reconcile")
}
