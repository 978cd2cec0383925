package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Label is one of the three sentiment classes
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Labels lists the sentiment classes in a stable order
var Labels = []Label{LabelPositive, LabelNeutral, LabelNegative}

var (
	// ErrInvalidLabel means the caller passed a label outside the three classes
	ErrInvalidLabel = errors.New("invalid sentiment label")
	// ErrInvalidScore means a rule score is NaN or outside [0,1]
	ErrInvalidScore = errors.New("rule score must be within [0,1]")
)

// ParseLabel converts a string into a Label, case-insensitively
func ParseLabel(s string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	return l, nil
}

// Valid reports whether l is one of the three classes
func (l Label) Valid() bool {
	switch l {
	case LabelPositive, LabelNeutral, LabelNegative:
		return true
	}
	return false
}

// Probabilities maps labels to weights. Values are treated as weights and
// need not sum to exactly one.
type Probabilities map[Label]float64

// Clone returns an independent copy
func (p Probabilities) Clone() Probabilities {
	out := make(Probabilities, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ReconcilePolicy holds the disagreement thresholds and the distributions
// reported when the rule engine overrides the statistical label.
type ReconcilePolicy struct {
	// NegativeBelow overrides a positive ML label when the rule score is lower
	NegativeBelow float64
	// PositiveAbove overrides a negative ML label when the rule score is higher
	PositiveAbove float64

	NegativeOverride Probabilities
	PositiveOverride Probabilities
}

// DefaultReconcilePolicy returns the production thresholds
func DefaultReconcilePolicy() ReconcilePolicy {
	return ReconcilePolicy{
		NegativeBelow: 0.4,
		PositiveAbove: 0.8,
		NegativeOverride: Probabilities{
			LabelPositive: 0.1,
			LabelNeutral:  0.1,
			LabelNegative: 0.8,
		},
		PositiveOverride: Probabilities{
			LabelPositive: 0.9,
			LabelNeutral:  0.05,
			LabelNegative: 0.05,
		},
	}
}

// Reconciliation is the final verdict after weighing the ML prediction
// against the rule score.
type Reconciliation struct {
	FinalLabel            Label         `json:"final_label"`
	FinalScore            float64       `json:"final_score"`
	AdjustedProbabilities Probabilities `json:"adjusted_probabilities"`
	Overridden            bool          `json:"overridden"`
	MLLabel               Label         `json:"ml_label"`
	RuleScore             float64       `json:"rule_score"`
}

// Reconcile applies the default policy
func Reconcile(mlLabel Label, mlProbs Probabilities, ruleScore float64) (Reconciliation, error) {
	return DefaultReconcilePolicy().Reconcile(mlLabel, mlProbs, ruleScore)
}

// Reconcile overrides the ML label only in the two observed failure modes:
// positive on clearly hostile text and negative on clearly glowing text.
// Neutral calls and agreements pass through untouched.
func (p ReconcilePolicy) Reconcile(mlLabel Label, mlProbs Probabilities, ruleScore float64) (Reconciliation, error) {
	if !mlLabel.Valid() {
		return Reconciliation{}, fmt.Errorf("%w: %q", ErrInvalidLabel, mlLabel)
	}
	if math.IsNaN(ruleScore) || ruleScore < 0 || ruleScore > 1 {
		return Reconciliation{}, fmt.Errorf("%w: got %v", ErrInvalidScore, ruleScore)
	}

	res := Reconciliation{MLLabel: mlLabel, RuleScore: ruleScore}

	switch {
	case ruleScore < p.NegativeBelow && mlLabel == LabelPositive:
		res.FinalLabel = LabelNegative
		res.FinalScore = ruleScore
		res.AdjustedProbabilities = p.NegativeOverride.Clone()
		res.Overridden = true
	case ruleScore > p.PositiveAbove && mlLabel == LabelNegative:
		res.FinalLabel = LabelPositive
		res.FinalScore = ruleScore
		res.AdjustedProbabilities = p.PositiveOverride.Clone()
		res.Overridden = true
	default:
		res.FinalLabel = mlLabel
		res.FinalScore = NeutralScore
		if prob, ok := mlProbs[mlLabel]; ok {
			res.FinalScore = prob
		}
		res.AdjustedProbabilities = mlProbs.Clone()
	}

	return res, nil
}
