package regress

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Partition is one slice of the training data.
type Partition struct {
	X [][]float64
	Y []float64
}

// FitRidge solves (XᵀX + λI)β = Xᵀy with an unpenalized intercept column.
func FitRidge(x [][]float64, y []float64, lambda float64) (*Linear, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("fit ridge: no rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit ridge: %d rows but %d targets", len(x), len(y))
	}
	if lambda < 0 {
		return nil, fmt.Errorf("fit ridge: negative lambda %v", lambda)
	}
	p := len(x[0])
	n := len(x)

	design := mat.NewDense(n, p+1, nil)
	for i, row := range x {
		if len(row) != p {
			return nil, &ShapeError{Want: p, Got: len(row)}
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 1; j <= p; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(design.T(), target)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		return nil, fmt.Errorf("fit ridge (lambda=%v): %w", lambda, err)
	}

	m := &Linear{Intercept: beta.AtVec(0), Weights: make([]float64, p), Lambda: lambda}
	for j := 0; j < p; j++ {
		m.Weights[j] = beta.AtVec(j + 1)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("fit ridge (lambda=%v): %w", lambda, err)
	}
	return m, nil
}

// Fit fits one model per lambda on train and keeps the one with the lowest
// validation MSE. With an empty validation partition the first lambda that
// fits is kept. The test partition is never seen here.
func Fit(train, val Partition, lambdas []float64, log zerolog.Logger) (*Linear, Metrics, error) {
	if len(lambdas) == 0 {
		return nil, Metrics{}, fmt.Errorf("fit: no lambdas configured")
	}

	var best *Linear
	var bestVal Metrics
	bestMSE := math.Inf(1)
	var lastErr error

	for _, lambda := range lambdas {
		m, err := FitRidge(train.X, train.Y, lambda)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Float64("lambda", lambda).Msg("ridge fit failed")
			continue
		}
		if len(val.Y) == 0 {
			if best == nil {
				best = m
			}
			continue
		}
		vm, err := Evaluate(m, val.X, val.Y)
		if err != nil {
			return nil, Metrics{}, fmt.Errorf("evaluate validation: %w", err)
		}
		log.Debug().Float64("lambda", lambda).Float64("val_rmse", vm.RMSE).Msg("ridge candidate")
		if vm.MSE < bestMSE {
			best, bestVal, bestMSE = m, vm, vm.MSE
		}
	}
	if best == nil {
		return nil, Metrics{}, fmt.Errorf("fit: every lambda failed: %w", lastErr)
	}
	return best, bestVal, nil
}
