package regress

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes prediction error on one partition.
type Metrics struct {
	N    int     `json:"n"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Evaluate scores m on every row of x against y.
func Evaluate(m Model, x [][]float64, y []float64) (Metrics, error) {
	out := Metrics{N: len(y)}
	if len(y) == 0 {
		return out, nil
	}
	pred := make([]float64, len(y))
	var se, ae float64
	for i, row := range x {
		p, err := m.Predict(row)
		if err != nil {
			return Metrics{}, err
		}
		pred[i] = p
		d := p - y[i]
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(y))
	out.MSE = se / n
	out.RMSE = math.Sqrt(out.MSE)
	out.MAE = ae / n
	if len(y) > 1 {
		out.R2 = stat.RSquaredFrom(pred, y, nil)
	}
	if math.IsNaN(out.R2) {
		out.R2 = 0
	}
	return out, nil
}
