package types

import (
	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// AnalyzeRequest represents the request structure for the analyze and aspects endpoints
type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

// BatchAnalyzeRequest carries several reviews to analyze in one call
type BatchAnalyzeRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

// ReconcileRequest asks for a verdict on an externally produced ML prediction
type ReconcileRequest struct {
	MLLabel         analysis.Label         `json:"ml_label" binding:"required"`
	MLProbabilities analysis.Probabilities `json:"ml_probabilities"`
	RuleScore       *float64               `json:"rule_score" binding:"required"`
}

// LabeledReview is one training example submitted over the API
type LabeledReview struct {
	Text  string         `json:"text" binding:"required"`
	Label analysis.Label `json:"label" binding:"required"`
}

// AddReviewsRequest adds labeled reviews to the training corpus
type AddReviewsRequest struct {
	Reviews []LabeledReview `json:"reviews" binding:"required"`
	Source  string          `json:"source,omitempty"`
}

// AddReviewsResponse reports how many reviews were stored
type AddReviewsResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// AspectScoresResponse is the aspect-only view of a review
type AspectScoresResponse struct {
	Aspects      map[string]float64 `json:"aspects"`
	OverallScore float64            `json:"overall_score"`
}

// AspectInfo describes one configured aspect
type AspectInfo struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// AspectsResponse lists the configured aspects
type AspectsResponse struct {
	Aspects []AspectInfo `json:"aspects"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Model        string `json:"model"`
	ModelTrained bool   `json:"model_trained"`
}
