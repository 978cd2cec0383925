package classifier

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// Predictor is the statistical half of the hybrid pipeline
type Predictor interface {
	Predict(text string) analysis.Label
	PredictWithProbabilities(text string) (analysis.Label, analysis.Probabilities)
	Name() string
}

// Model is an immutable trained bundle of vectorizer, scaler and classifier.
// It is safe for concurrent use; retraining produces a new Model.
type Model struct {
	vectorizer *Vectorizer
	scaler     *Scaler
	classifier Classifier
	labels     []analysis.Label
	report     Report
	trainedAt  time.Time
}

// NewModel assembles a model. labels[i] names class index i.
func NewModel(v *Vectorizer, s *Scaler, c Classifier, labels []analysis.Label, report Report) *Model {
	return &Model{
		vectorizer: v,
		scaler:     s,
		classifier: c,
		labels:     append([]analysis.Label(nil), labels...),
		report:     report,
		trainedAt:  time.Now().UTC(),
	}
}

// Name identifies the model in responses and logs
func (m *Model) Name() string {
	return "tfidf-linear-svm"
}

func (m *Model) features(text string) []float64 {
	return m.scaler.Transform(m.vectorizer.Transform(text))
}

// Predict returns the most likely label for text
func (m *Model) Predict(text string) analysis.Label {
	return m.labels[m.classifier.Predict(m.features(text))]
}

// PredictWithProbabilities returns the label and a distribution over all
// labels. Classifiers that cannot score confidence yield a uniform
// distribution.
func (m *Model) PredictWithProbabilities(text string) (analysis.Label, analysis.Probabilities) {
	x := m.features(text)
	label := m.labels[m.classifier.Predict(x)]

	probs := make(analysis.Probabilities, len(m.labels))
	scorer, ok := m.classifier.(ConfidenceScorer)
	if !ok {
		for _, l := range m.labels {
			probs[l] = 1 / float64(len(m.labels))
		}
		return label, probs
	}

	for i, p := range softmax(scorer.DecisionFunction(x)) {
		probs[m.labels[i]] = p
	}
	return label, probs
}

// Labels returns the class labels in index order
func (m *Model) Labels() []analysis.Label {
	return append([]analysis.Label(nil), m.labels...)
}

// Report returns the evaluation captured at training time
func (m *Model) Report() Report {
	return m.report
}

// TrainedAt returns when the model was built
func (m *Model) TrainedAt() time.Time {
	return m.trainedAt
}

// Vocabulary returns the vectorizer vocabulary size
func (m *Model) Vocabulary() int {
	return m.vectorizer.Size()
}

func softmax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	lse := floats.LogSumExp(scores)
	for i, s := range scores {
		out[i] = math.Exp(s - lse)
	}
	return out
}
