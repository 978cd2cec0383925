package classifier

import (
	"sync"

	"github.com/jonreiter/govader"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// VaderThreshold is the compound score magnitude that separates polar
// sentiment from neutral
const VaderThreshold = 0.05

// VaderClassifier is the untrained lexicon baseline used until a model has
// been trained from the corpus
type VaderClassifier struct {
	mu       sync.Mutex
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderClassifier creates the baseline predictor
func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Name identifies the baseline in responses and logs
func (v *VaderClassifier) Name() string {
	return "vader-baseline"
}

func (v *VaderClassifier) scores(text string) govader.Sentiment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.analyzer.PolarityScores(text)
}

// Predict labels text from the compound score
func (v *VaderClassifier) Predict(text string) analysis.Label {
	label, _ := v.PredictWithProbabilities(text)
	return label
}

// PredictWithProbabilities uses the pos/neu/neg proportions as the
// distribution. Empty text has no proportions and gets a uniform one.
func (v *VaderClassifier) PredictWithProbabilities(text string) (analysis.Label, analysis.Probabilities) {
	s := v.scores(text)

	label := analysis.LabelNeutral
	switch {
	case s.Compound >= VaderThreshold:
		label = analysis.LabelPositive
	case s.Compound <= -VaderThreshold:
		label = analysis.LabelNegative
	}

	total := s.Positive + s.Neutral + s.Negative
	if total <= 0 {
		third := 1.0 / 3
		return label, analysis.Probabilities{
			analysis.LabelPositive: third,
			analysis.LabelNeutral:  third,
			analysis.LabelNegative: third,
		}
	}

	return label, analysis.Probabilities{
		analysis.LabelPositive: s.Positive / total,
		analysis.LabelNeutral:  s.Neutral / total,
		analysis.LabelNegative: s.Negative / total,
	}
}
