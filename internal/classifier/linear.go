package classifier

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Classifier predicts a class index from a feature vector
type Classifier interface {
	Predict(x []float64) int
}

// ConfidenceScorer is implemented by classifiers that expose one decision
// score per class. Models whose classifier lacks it report uniform
// probabilities.
type ConfidenceScorer interface {
	DecisionFunction(x []float64) []float64
}

// SVMConfig controls linear SVM training
type SVMConfig struct {
	C            float64 // inverse regularisation strength
	Epochs       int
	LearningRate float64
	Seed         int64
}

// DefaultSVMConfig mirrors the tuned production settings
func DefaultSVMConfig() SVMConfig {
	return SVMConfig{
		C:            0.1,
		Epochs:       30,
		LearningRate: 0.1,
		Seed:         42,
	}
}

// LinearSVM is a one-vs-rest linear classifier trained on the hinge loss
type LinearSVM struct {
	weights *mat.Dense // classes x features
	bias    []float64
}

// TrainLinearSVM fits one binary hinge-loss model per class with
// stochastic gradient descent and a decaying step size. Training is
// deterministic for a given seed.
func TrainLinearSVM(x *mat.Dense, y []int, classes int, cfg SVMConfig) *LinearSVM {
	rows, cols := x.Dims()
	if cfg.C <= 0 {
		cfg.C = DefaultSVMConfig().C
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultSVMConfig().Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultSVMConfig().LearningRate
	}

	m := &LinearSVM{
		weights: mat.NewDense(classes, cols, nil),
		bias:    make([]float64, classes),
	}

	lambda := 1 / (cfg.C * float64(rows))
	rng := rand.New(rand.NewSource(cfg.Seed))
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	for k := 0; k < classes; k++ {
		w := m.weights.RawRowView(k)
		step := 0
		for epoch := 0; epoch < cfg.Epochs; epoch++ {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

			for _, i := range order {
				step++
				eta := cfg.LearningRate / (1 + cfg.LearningRate*lambda*float64(step))

				target := -1.0
				if y[i] == k {
					target = 1.0
				}

				row := x.RawRowView(i)
				margin := target * (floats.Dot(w, row) + m.bias[k])

				decay := 1 - eta*lambda
				if decay < 0 {
					decay = 0
				}
				floats.Scale(decay, w)

				if margin < 1 {
					floats.AddScaled(w, eta*target, row)
					m.bias[k] += eta * target
				}
			}
		}
	}

	return m
}

// Classes returns the number of classes the model separates
func (m *LinearSVM) Classes() int {
	return len(m.bias)
}

// DecisionFunction returns the signed distance to each class hyperplane
func (m *LinearSVM) DecisionFunction(x []float64) []float64 {
	scores := make([]float64, len(m.bias))
	for k := range scores {
		scores[k] = floats.Dot(m.weights.RawRowView(k), x) + m.bias[k]
	}
	return scores
}

// Predict returns the class with the largest decision score
func (m *LinearSVM) Predict(x []float64) int {
	return floats.MaxIdx(m.DecisionFunction(x))
}
