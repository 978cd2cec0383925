package monitoring

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// maxResponseSamples bounds the latency window used for percentiles
const maxResponseSamples = 1000

// Metrics holds in-process counters served on /stats and mirrors every
// observation into Prometheus when attached
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64
	StartTime    time.Time

	AnalysisCount  int64
	OverrideCount  int64
	TrainingRuns   int64
	TrainingFailed int64

	RateLimitBlocks      int64
	RateLimitRedisErrors int64
	RateLimitFallback    int64

	labelCounts map[string]int64
	labelMutex  sync.RWMutex

	responseTimes      []time.Duration
	responseTimesMutex sync.RWMutex

	requestCountByStatus map[int]int64
	statusMutex          sync.RWMutex

	prom *Prometheus
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		labelCounts:          make(map[string]int64),
		responseTimes:        make([]time.Duration, 0, maxResponseSamples),
		requestCountByStatus: make(map[int]int64),
	}
}

// WithPrometheus mirrors observations into p
func (m *Metrics) WithPrometheus(p *Prometheus) *Metrics {
	m.prom = p
	return m
}

// Prometheus returns the attached exporter, if any
func (m *Metrics) Prometheus() *Prometheus {
	return m.prom
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
	if m.prom != nil {
		m.prom.CacheOperations.WithLabelValues("hit").Inc()
	}
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
	if m.prom != nil {
		m.prom.CacheOperations.WithLabelValues("miss").Inc()
	}
}

// RecordAnalysis records one completed review analysis
func (m *Metrics) RecordAnalysis(finalLabel string, overridden bool, ruleScore float64, duration time.Duration) {
	atomic.AddInt64(&m.AnalysisCount, 1)
	if overridden {
		atomic.AddInt64(&m.OverrideCount, 1)
	}

	m.labelMutex.Lock()
	m.labelCounts[finalLabel]++
	m.labelMutex.Unlock()

	if m.prom != nil {
		m.prom.AnalysesTotal.WithLabelValues(finalLabel, strconv.FormatBool(overridden)).Inc()
		m.prom.RuleScore.Observe(ruleScore)
		m.prom.AnalysisDuration.Observe(duration.Seconds())
	}
}

// RecordTraining records a model training run
func (m *Metrics) RecordTraining(success bool, accuracy float64, duration time.Duration) {
	atomic.AddInt64(&m.TrainingRuns, 1)
	status := "success"
	if !success {
		atomic.AddInt64(&m.TrainingFailed, 1)
		status = "failure"
	}

	if m.prom != nil {
		m.prom.TrainingRuns.WithLabelValues(status).Inc()
		m.prom.TrainingDuration.Observe(duration.Seconds())
		if success {
			m.prom.ModelAccuracy.Set(accuracy)
		}
	}
}

// RecordHTTP records one served request for the route template
func (m *Metrics) RecordHTTP(method, route string, statusCode int, duration time.Duration) {
	m.recordResponseTime(duration)

	m.statusMutex.Lock()
	m.requestCountByStatus[statusCode]++
	m.statusMutex.Unlock()

	if statusCode >= 400 {
		m.IncrementError()
	}

	if m.prom != nil {
		code := strconv.Itoa(statusCode)
		m.prom.RequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
		m.prom.RequestsTotal.WithLabelValues(method, route, code).Inc()
	}
}

func (m *Metrics) recordResponseTime(duration time.Duration) {
	m.responseTimesMutex.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > maxResponseSamples {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMutex.Unlock()
}

// IncrementRateLimitBlock counts a rejected request
func (m *Metrics) IncrementRateLimitBlock(backend string) {
	atomic.AddInt64(&m.RateLimitBlocks, 1)
	if m.prom != nil {
		m.prom.RateLimitDecision.WithLabelValues(backend, "blocked").Inc()
	}
}

// IncrementRateLimitAllow counts an admitted request
func (m *Metrics) IncrementRateLimitAllow(backend string) {
	if m.prom != nil {
		m.prom.RateLimitDecision.WithLabelValues(backend, "allowed").Inc()
	}
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallback, 1)
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMutex.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.responseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.statusMutex.RLock()
	defer m.statusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.requestCountByStatus))
	for code, count := range m.requestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetLabelDistribution returns analyses per final label
func (m *Metrics) GetLabelDistribution() map[string]int64 {
	m.labelMutex.RLock()
	defer m.labelMutex.RUnlock()

	out := make(map[string]int64, len(m.labelCounts))
	for l, n := range m.labelCounts {
		out[l] = n
	}
	return out
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	analyses := atomic.LoadInt64(&m.AnalysisCount)
	overrides := atomic.LoadInt64(&m.OverrideCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	overrideRate := float64(0)
	if analyses > 0 {
		overrideRate = float64(overrides) / float64(analyses) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"analyses":              analyses,
		"overrides":             overrides,
		"override_rate_percent": overrideRate,
		"label_distribution":    m.GetLabelDistribution(),
		"training_runs":         atomic.LoadInt64(&m.TrainingRuns),
		"training_failures":     atomic.LoadInt64(&m.TrainingFailed),

		"rate_limit": map[string]interface{}{
			"blocks":         atomic.LoadInt64(&m.RateLimitBlocks),
			"redis_errors":   atomic.LoadInt64(&m.RateLimitRedisErrors),
			"fallback_count": atomic.LoadInt64(&m.RateLimitFallback),
		},
	}
}
