package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

var (
	// ErrEmptyDataset means there was nothing to train on
	ErrEmptyDataset = errors.New("training dataset is empty")
	// ErrSingleLabel means the dataset does not contain at least two classes
	ErrSingleLabel = errors.New("training dataset needs at least two distinct labels")
)

// Example is one labeled review
type Example struct {
	Text  string         `json:"text"`
	Label analysis.Label `json:"label"`
}

// TrainConfig controls the whole training pipeline
type TrainConfig struct {
	Tokenizer TokenizerConfig
	SVM       SVMConfig
	// TestSplit is the fraction of examples held out for evaluation
	TestSplit float64
	Seed      int64
}

// DefaultTrainConfig returns an 80/20 split with the default SVM settings
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		SVM:       DefaultSVMConfig(),
		TestSplit: 0.2,
		Seed:      42,
	}
}

// Train fits a model on examples and evaluates it on a seeded held-out
// split. When the split leaves no test rows the report is computed on the
// training rows and HeldOut is false.
func Train(examples []Example, cfg TrainConfig) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyDataset
	}
	if cfg.TestSplit < 0 || cfg.TestSplit >= 1 {
		return nil, fmt.Errorf("test split must be within [0,1), got %v", cfg.TestSplit)
	}

	labels, index, err := encodeLabels(examples)
	if err != nil {
		return nil, err
	}

	order := rand.New(rand.NewSource(cfg.Seed)).Perm(len(examples))
	nTest := int(math.Round(float64(len(examples)) * cfg.TestSplit))
	if nTest >= len(examples) {
		nTest = 0
	}
	testIdx, trainIdx := order[:nTest], order[nTest:]

	trainDocs, trainY := subset(examples, trainIdx, index)

	vectorizer, err := FitVectorizer(trainDocs, NewTokenizer(cfg.Tokenizer))
	if err != nil {
		return nil, err
	}
	x := vectorizer.TransformAll(trainDocs)
	scaler := FitScaler(x)
	x = scaler.TransformAll(x)

	svmCfg := cfg.SVM
	if svmCfg.Seed == 0 {
		svmCfg.Seed = cfg.Seed
	}
	svm := TrainLinearSVM(x, trainY, len(labels), svmCfg)

	model := NewModel(vectorizer, scaler, svm, labels, Report{})

	evalIdx, heldOut := testIdx, true
	if nTest == 0 {
		evalIdx, heldOut = trainIdx, false
	}
	evalDocs, evalY := subset(examples, evalIdx, index)
	predicted := make([]int, len(evalDocs))
	for i, doc := range evalDocs {
		predicted[i] = svm.Predict(model.features(doc))
	}

	report := Evaluate(evalY, predicted, labels)
	report.TrainExamples = len(trainIdx)
	report.TestExamples = len(testIdx)
	report.HeldOut = heldOut
	model.report = report

	return model, nil
}

// encodeLabels assigns class indices in sorted label order
func encodeLabels(examples []Example) ([]analysis.Label, map[analysis.Label]int, error) {
	seen := make(map[analysis.Label]bool)
	for _, ex := range examples {
		if !ex.Label.Valid() {
			return nil, nil, fmt.Errorf("%w: %q", analysis.ErrInvalidLabel, ex.Label)
		}
		seen[ex.Label] = true
	}
	if len(seen) < 2 {
		return nil, nil, ErrSingleLabel
	}

	labels := make([]analysis.Label, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	index := make(map[analysis.Label]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return labels, index, nil
}

func subset(examples []Example, idx []int, index map[analysis.Label]int) ([]string, []int) {
	docs := make([]string, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		docs[i] = examples[j].Text
		y[i] = index[examples[j].Label]
	}
	return docs, y
}
