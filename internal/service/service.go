package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
	"github.com/ZanzyTHEbar/review-sentiment/internal/lexicon"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
)

const (
	// PositiveBand and NegativeBand split the final score into three bands
	PositiveBand = 0.6
	NegativeBand = 0.4

	// StrengthAbove and WeaknessBelow select the aspects worth calling out
	StrengthAbove = 0.65
	WeaknessBelow = 0.45
)

// AspectScore is a named aspect score
type AspectScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// AnalysisResult is the complete verdict on one review
type AnalysisResult struct {
	ID              string                  `json:"id"`
	Text            string                  `json:"text"`
	OverallScore    float64                 `json:"overall_score"`
	Sentences       int                     `json:"sentences"`
	Aspects         []analysis.AspectResult `json:"aspects"`
	Strengths       []AspectScore           `json:"strengths"`
	Weaknesses      []AspectScore           `json:"weaknesses"`
	Model           string                  `json:"model"`
	MLLabel         analysis.Label          `json:"ml_label"`
	MLProbabilities analysis.Probabilities  `json:"ml_probabilities"`
	Reconciliation  analysis.Reconciliation `json:"reconciliation"`
	Emotion         string                  `json:"emotion"`
	ScoreBand       analysis.Label          `json:"score_band"`
	AnalyzedAt      time.Time               `json:"analyzed_at"`
	DurationMS      float64                 `json:"duration_ms"`
}

// BatchSummary aggregates a batch of analyses
type BatchSummary struct {
	Total         int                    `json:"total"`
	Counts        map[analysis.Label]int `json:"counts"`
	Overridden    int                    `json:"overridden"`
	MeanScore     float64                `json:"mean_score"`
	MeanRuleScore float64                `json:"mean_rule_score"`
}

// BatchResult is the outcome of BatchAnalyze
type BatchResult struct {
	Results []AnalysisResult `json:"results"`
	Summary BatchSummary     `json:"summary"`
}

// Service runs the hybrid review pipeline: rule engine, statistical
// model, reconciliation
type Service struct {
	analyzer *analysis.Analyzer
	holder   *ModelHolder
	history  *History
	policy   analysis.ReconcilePolicy
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

// NewService creates a review service
func NewService(analyzer *analysis.Analyzer, holder *ModelHolder, history *History, metrics *monitoring.Metrics, logger *monitoring.Logger) *Service {
	return &Service{
		analyzer: analyzer,
		holder:   holder,
		history:  history,
		policy:   analysis.DefaultReconcilePolicy(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Holder returns the model holder
func (s *Service) Holder() *ModelHolder {
	return s.holder
}

// Aspects lists the configured aspects
func (s *Service) Aspects() []lexicon.Aspect {
	return s.analyzer.Lexicon().Aspects()
}

// ScoreAspects runs the rule engine only
func (s *Service) ScoreAspects(text string) (map[string]float64, float64) {
	return s.analyzer.AnalyzeAspects(text), s.analyzer.AnalyzeOverallSentiment(text)
}

// Reconcile applies the service policy to an external prediction
func (s *Service) Reconcile(mlLabel analysis.Label, mlProbs analysis.Probabilities, ruleScore float64) (analysis.Reconciliation, error) {
	return s.policy.Reconcile(mlLabel, mlProbs, ruleScore)
}

// History returns up to limit recent analyses, newest first
func (s *Service) History(limit int) []AnalysisResult {
	return s.history.Recent(limit)
}

// Analyze scores one review and records it in the history
func (s *Service) Analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	result, err := s.analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	s.history.Add(*result)
	return result, nil
}

func (s *Service) analyze(ctx context.Context, text string) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	predictor, err := s.holder.Current()
	if err != nil {
		return nil, err
	}

	rule := s.analyzer.Analyze(text)
	mlLabel, mlProbs := predictor.PredictWithProbabilities(text)

	rec, err := s.policy.Reconcile(mlLabel, mlProbs, rule.OverallScore)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile %s prediction: %w", predictor.Name(), err)
	}

	strengths, weaknesses := highlights(rule)
	duration := time.Since(start)

	result := &AnalysisResult{
		ID:              uuid.New().String(),
		Text:            text,
		OverallScore:    rule.OverallScore,
		Sentences:       rule.Sentences,
		Aspects:         rule.Aspects,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Model:           predictor.Name(),
		MLLabel:         mlLabel,
		MLProbabilities: mlProbs,
		Reconciliation:  rec,
		Emotion:         Emotion(rec.FinalLabel),
		ScoreBand:       ScoreBand(rec.FinalScore),
		AnalyzedAt:      start.UTC(),
		DurationMS:      float64(duration.Microseconds()) / 1000,
	}

	if s.metrics != nil {
		s.metrics.RecordAnalysis(string(rec.FinalLabel), rec.Overridden, rule.OverallScore, duration)
	}
	if s.logger != nil {
		s.logger.AnalysisLogger(len(text), len(rule.Mentioned()), rule.OverallScore, string(rec.FinalLabel), rec.Overridden, duration)
	}

	return result, nil
}

// BatchAnalyze scores every text in order and summarises the batch. It
// stops at the first failure, and history is only updated once every text
// has been scored.
func (s *Service) BatchAnalyze(ctx context.Context, texts []string) (*BatchResult, error) {
	batch := &BatchResult{
		Results: make([]AnalysisResult, 0, len(texts)),
		Summary: BatchSummary{Counts: make(map[analysis.Label]int, len(analysis.Labels))},
	}
	for _, l := range analysis.Labels {
		batch.Summary.Counts[l] = 0
	}

	for i, text := range texts {
		result, err := s.analyze(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("texts[%d]: %w", i, err)
		}
		batch.Results = append(batch.Results, *result)

		batch.Summary.Counts[result.Reconciliation.FinalLabel]++
		batch.Summary.MeanScore += result.Reconciliation.FinalScore
		batch.Summary.MeanRuleScore += result.OverallScore
		if result.Reconciliation.Overridden {
			batch.Summary.Overridden++
		}
	}

	s.history.AddAll(batch.Results)

	if n := len(batch.Results); n > 0 {
		batch.Summary.Total = n
		batch.Summary.MeanScore /= float64(n)
		batch.Summary.MeanRuleScore /= float64(n)
	}

	return batch, nil
}

// Emotion maps a final label to the reviewer mood shown to users
func Emotion(label analysis.Label) string {
	switch label {
	case analysis.LabelPositive:
		return "happy"
	case analysis.LabelNegative:
		return "sad"
	default:
		return "neutral"
	}
}

// ScoreBand buckets a score into positive, neutral or negative
func ScoreBand(score float64) analysis.Label {
	switch {
	case score >= PositiveBand:
		return analysis.LabelPositive
	case score <= NegativeBand:
		return analysis.LabelNegative
	default:
		return analysis.LabelNeutral
	}
}

// highlights picks the strongest and weakest mentioned aspects. Strengths
// are sorted high to low, weaknesses low to high.
func highlights(rule analysis.Result) ([]AspectScore, []AspectScore) {
	strengths := []AspectScore{}
	weaknesses := []AspectScore{}

	for _, a := range rule.Mentioned() {
		switch {
		case a.Score > StrengthAbove:
			strengths = append(strengths, AspectScore{Name: a.Name, Score: a.Score})
		case a.Score < WeaknessBelow:
			weaknesses = append(weaknesses, AspectScore{Name: a.Name, Score: a.Score})
		}
	}

	sort.SliceStable(strengths, func(i, j int) bool { return strengths[i].Score > strengths[j].Score })
	sort.SliceStable(weaknesses, func(i, j int) bool { return weaknesses[i].Score < weaknesses[j].Score })

	return strengths, weaknesses
}
