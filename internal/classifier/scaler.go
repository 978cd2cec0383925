package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler divides each feature by its population standard deviation. It
// does not centre the data, which keeps sparse TF-IDF rows sparse.
type Scaler struct {
	scale []float64
}

// FitScaler learns per-column scales from x. Constant columns get scale 1.
func FitScaler(x mat.Matrix) *Scaler {
	rows, cols := x.Dims()
	s := &Scaler{scale: make([]float64, cols)}

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)

		std := 0.0
		if rows > 1 {
			_, variance := stat.MeanVariance(col, nil)
			// population variance from the unbiased estimate
			std = math.Sqrt(variance * float64(rows-1) / float64(rows))
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.scale[j] = std
	}

	return s
}

// Transform scales a single feature vector into a new slice
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	floats.DivTo(out, x, s.scale)
	return out
}

// TransformAll scales every row of x into a new matrix
func (s *Scaler) TransformAll(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		out.SetRow(i, s.Transform(x.RawRowView(i)))
	}
	return out
}
