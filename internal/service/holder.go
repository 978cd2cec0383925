package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
	"github.com/ZanzyTHEbar/review-sentiment/internal/resilience"
)

// ErrNotTrained means no trained model is loaded and no baseline is configured
var ErrNotTrained = errors.New("sentiment model is not trained")

// CorpusSource supplies labeled examples for training
type CorpusSource interface {
	TrainingExamples(ctx context.Context) ([]classifier.Example, error)
}

// HolderConfig configures training and corpus access
type HolderConfig struct {
	Train classifier.TrainConfig
	Retry resilience.RetryConfig
}

// DefaultHolderConfig returns the default training pipeline settings
func DefaultHolderConfig() HolderConfig {
	return HolderConfig{
		Train: classifier.DefaultTrainConfig(),
		Retry: resilience.DefaultRetryConfig(),
	}
}

// ModelStatus describes the served model
type ModelStatus struct {
	Trained      bool               `json:"trained"`
	Model        string             `json:"model"`
	Baseline     string             `json:"baseline,omitempty"`
	TrainedAt    *time.Time         `json:"trained_at,omitempty"`
	Vocabulary   int                `json:"vocabulary,omitempty"`
	Report       *classifier.Report `json:"report,omitempty"`
	TrainingRuns int64              `json:"training_runs"`
	LastError    string             `json:"last_error,omitempty"`
}

// ModelHolder serves the current model and swaps in retrained ones.
// Readers never block on training.
type ModelHolder struct {
	model    atomic.Pointer[classifier.Model]
	baseline classifier.Predictor
	corpus   CorpusSource
	config   HolderConfig
	group    singleflight.Group

	metrics *monitoring.Metrics
	logger  *monitoring.Logger

	runs    atomic.Int64
	mu      sync.RWMutex
	lastErr error
	onSwap  []func()
}

// NewModelHolder creates a holder. baseline may be nil, in which case
// predictions fail with ErrNotTrained until the first training run.
func NewModelHolder(corpus CorpusSource, config HolderConfig, baseline classifier.Predictor, metrics *monitoring.Metrics, logger *monitoring.Logger) *ModelHolder {
	return &ModelHolder{
		baseline: baseline,
		corpus:   corpus,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}
}

// OnSwap registers fn to run after every successful model swap
func (h *ModelHolder) OnSwap(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSwap = append(h.onSwap, fn)
}

// Current returns the trained model, or the baseline when none is loaded
func (h *ModelHolder) Current() (classifier.Predictor, error) {
	if m := h.model.Load(); m != nil {
		return m, nil
	}
	if h.baseline != nil {
		return h.baseline, nil
	}
	return nil, ErrNotTrained
}

// Model returns the trained model or nil
func (h *ModelHolder) Model() *classifier.Model {
	return h.model.Load()
}

// Set installs m as the served model
func (h *ModelHolder) Set(m *classifier.Model) {
	h.model.Store(m)

	h.mu.RLock()
	hooks := append([]func(){}, h.onSwap...)
	h.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// Train retrains on the whole corpus and swaps the result in. Concurrent
// callers share one run; ctx only bounds how long this caller waits.
func (h *ModelHolder) Train(ctx context.Context) (*classifier.Model, error) {
	ch := h.group.DoChan("train", func() (interface{}, error) {
		return h.train(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*classifier.Model), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *ModelHolder) train(ctx context.Context) (*classifier.Model, error) {
	start := time.Now()
	h.runs.Add(1)

	var examples []classifier.Example
	err := resilience.RetryWithConfig(ctx, h.config.Retry, func() error {
		var err error
		examples, err = h.corpus.TrainingExamples(ctx)
		return err
	})
	if err != nil {
		err = fmt.Errorf("failed to read training corpus: %w", err)
		h.finish(nil, len(examples), time.Since(start), err)
		return nil, err
	}

	model, err := classifier.Train(examples, h.config.Train)
	if err != nil {
		h.finish(nil, len(examples), time.Since(start), err)
		return nil, err
	}

	h.finish(model, len(examples), time.Since(start), nil)
	h.Set(model)
	return model, nil
}

func (h *ModelHolder) finish(model *classifier.Model, examples int, duration time.Duration, err error) {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()

	accuracy := 0.0
	if model != nil {
		accuracy = model.Report().Accuracy
	}

	if h.metrics != nil {
		h.metrics.RecordTraining(err == nil, accuracy, duration)
	}
	if h.logger != nil {
		h.logger.TrainingLogger(examples, accuracy, duration, err)
	}
}

// Status reports what is being served
func (h *ModelHolder) Status() ModelStatus {
	status := ModelStatus{TrainingRuns: h.runs.Load()}

	h.mu.RLock()
	if h.lastErr != nil {
		status.LastError = h.lastErr.Error()
	}
	h.mu.RUnlock()

	if h.baseline != nil {
		status.Baseline = h.baseline.Name()
		status.Model = h.baseline.Name()
	}

	if m := h.model.Load(); m != nil {
		trainedAt := m.TrainedAt()
		report := m.Report()
		status.Trained = true
		status.Model = m.Name()
		status.TrainedAt = &trainedAt
		status.Vocabulary = m.Vocabulary()
		status.Report = &report
	}

	return status
}
