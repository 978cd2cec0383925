package classifier

import (
	"math"

	"github.com/bsm/mlmetrics"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// LabelMetrics holds the per-class scores of an evaluation
type LabelMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarises model quality on a held-out set
type Report struct {
	Accuracy      float64                         `json:"accuracy"`
	Labels        map[analysis.Label]LabelMetrics `json:"labels"`
	TrainExamples int                             `json:"train_examples"`
	TestExamples  int                             `json:"test_examples"`
	HeldOut       bool                            `json:"held_out"`
}

// Evaluate compares predicted class indices against the truth. labels[i]
// names class index i.
func Evaluate(actual, predicted []int, labels []analysis.Label) Report {
	cm := mlmetrics.NewConfusionMatrix()
	support := make([]int, len(labels))
	for i := range actual {
		cm.Observe(actual[i], predicted[i])
		support[actual[i]]++
	}

	report := Report{
		Labels:       make(map[analysis.Label]LabelMetrics, len(labels)),
		TestExamples: len(actual),
	}
	if len(actual) == 0 {
		return report
	}

	report.Accuracy = finite(cm.Accuracy())
	for i, l := range labels {
		if i >= cm.Order() {
			// never observed on either side
			report.Labels[l] = LabelMetrics{}
			continue
		}
		report.Labels[l] = LabelMetrics{
			Precision: finite(cm.Precision(i)),
			Recall:    finite(cm.Sensitivity(i)),
			F1:        finite(cm.F1(i)),
			Support:   support[i],
		}
	}
	return report
}

// finite maps the NaN of an empty ratio to 0 so reports stay JSON-encodable
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
