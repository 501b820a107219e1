package regress

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func line(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i)
		x[i] = []float64{v}
		y[i] = 2*v + 1
	}
	return x, y
}

func TestFitRidge_RecoversLine(t *testing.T) {
	x, y := line(20)
	m, err := FitRidge(x, y, 0)
	if err != nil {
		t.Fatalf("FitRidge: %v", err)
	}
	if math.Abs(m.Intercept-1) > 1e-6 || math.Abs(m.Weights[0]-2) > 1e-6 {
		t.Errorf("got y = %v + %v·x, want 1 + 2·x", m.Intercept, m.Weights[0])
	}
	p, err := m.Predict([]float64{10})
	if err != nil || math.Abs(p-21) > 1e-6 {
		t.Errorf("Predict(10) = %v, %v; want 21", p, err)
	}
}

func TestFitRidge_PenaltyShrinksWeights(t *testing.T) {
	x, y := line(20)
	m, err := FitRidge(x, y, 1000)
	if err != nil {
		t.Fatalf("FitRidge: %v", err)
	}
	if !(m.Weights[0] < 2 && m.Weights[0] > 0) {
		t.Errorf("weight = %v, want shrunk toward 0", m.Weights[0])
	}
}

func TestFitRidge_Errors(t *testing.T) {
	if _, err := FitRidge(nil, nil, 1); err == nil {
		t.Error("expected error for no rows")
	}
	if _, err := FitRidge([][]float64{{1}}, []float64{1, 2}, 1); err == nil {
		t.Error("expected error for row/target mismatch")
	}
	if _, err := FitRidge([][]float64{{1}, {2, 3}}, []float64{1, 2}, 1); err == nil {
		t.Error("expected error for ragged rows")
	}
	x, y := line(5)
	if _, err := FitRidge(x, y, -1); err == nil {
		t.Error("expected error for negative lambda")
	}
}

func TestFit_PicksLowestValidationError(t *testing.T) {
	x, y := line(30)
	train := Partition{X: x[:20], Y: y[:20]}
	val := Partition{X: x[20:], Y: y[20:]}

	m, vm, err := Fit(train, val, []float64{1000, 0.001, 100}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if m.Lambda != 0.001 {
		t.Errorf("lambda = %v, want 0.001", m.Lambda)
	}
	if vm.N != 10 || vm.RMSE > 0.01 {
		t.Errorf("validation metrics = %+v", vm)
	}
}

func TestLinear_PredictErrors(t *testing.T) {
	m := &Linear{Intercept: 1, Weights: []float64{1, 2}}

	_, err := m.Predict([]float64{1})
	var se *ShapeError
	if !errors.As(err, &se) || se.Want != 2 || se.Got != 1 {
		t.Errorf("err = %v, want ShapeError{2, 1}", err)
	}

	_, err = m.Predict([]float64{1, math.NaN()})
	var nf *NonFiniteError
	if !errors.As(err, &nf) || nf.Position != 1 {
		t.Errorf("err = %v, want NonFiniteError at 1", err)
	}

	big := &Linear{Weights: []float64{math.MaxFloat64, math.MaxFloat64}}
	if _, err := big.Predict([]float64{1, 1}); err == nil {
		t.Error("expected error for overflowing output")
	}
}

func TestLinear_Validate(t *testing.T) {
	if err := (&Linear{Weights: []float64{1}}).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	var nilModel *Linear
	if err := nilModel.Validate(); err == nil {
		t.Error("expected error for nil model")
	}
	if err := (&Linear{Weights: []float64{math.Inf(1)}}).Validate(); err == nil {
		t.Error("expected error for infinite weight")
	}
}

func TestEvaluate(t *testing.T) {
	x, y := line(10)
	m := &Linear{Intercept: 1, Weights: []float64{2}}
	got, err := Evaluate(m, x, y)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.N != 10 || got.MSE != 0 || got.MAE != 0 || got.R2 != 1 {
		t.Errorf("perfect fit metrics = %+v", got)
	}

	off := &Linear{Intercept: 2, Weights: []float64{2}}
	got, _ = Evaluate(off, x, y)
	if got.RMSE != 1 || got.MAE != 1 {
		t.Errorf("offset-by-one metrics = %+v", got)
	}
}

func TestSplit_DisjointAndComplete(t *testing.T) {
	train, val, test, err := Split(100, DefaultSplit, 42)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(train) != 70 || len(val) != 15 || len(test) != 15 {
		t.Errorf("sizes = %d/%d/%d, want 70/15/15", len(train), len(val), len(test))
	}
	seen := make(map[int]bool)
	for _, part := range [][]int{train, val, test} {
		for _, i := range part {
			if seen[i] {
				t.Fatalf("index %d appears in two partitions", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != 100 {
		t.Errorf("covered %d indices, want 100", len(seen))
	}

	again, _, _, _ := Split(100, DefaultSplit, 42)
	for i := range train {
		if train[i] != again[i] {
			t.Fatal("same seed produced a different split")
		}
	}
}

func TestSplit_Errors(t *testing.T) {
	if _, _, _, err := Split(3, DefaultSplit, 1); err == nil {
		t.Error("expected error for too few rows")
	}
	if _, _, _, err := Split(100, SplitRatios{Train: 0.5, Validation: 0.1, Test: 0.1}, 1); err == nil {
		t.Error("expected error for ratios not summing to 1")
	}
}
