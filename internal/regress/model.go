// Package regress provides the cost model: a ridge-penalized linear
// regression fitted on the selected feature matrix.
package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Model scores one feature vector.
type Model interface {
	Predict(x []float64) (float64, error)
	Inputs() int
}

// ShapeError reports a vector whose length does not match the model.
type ShapeError struct {
	Want, Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("feature vector has %d entries, model expects %d", e.Got, e.Want)
}

// NonFiniteError reports a NaN or infinite input entry.
type NonFiniteError struct {
	Position int
	Value    float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("feature vector position %d is not finite (%v)", e.Position, e.Value)
}

// Linear is y = Intercept + Weights·x.
type Linear struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
	Lambda    float64   `json:"lambda"`
}

// Inputs returns the expected vector length.
func (l *Linear) Inputs() int { return len(l.Weights) }

// Predict returns the model output for x.
func (l *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(l.Weights) {
		return 0, &ShapeError{Want: len(l.Weights), Got: len(x)}
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &NonFiniteError{Position: i, Value: v}
		}
	}
	y := l.Intercept + floats.Dot(l.Weights, x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("model output is not finite (%v)", y)
	}
	return y, nil
}

// Validate checks a model read back from an artifact.
func (l *Linear) Validate() error {
	if l == nil || len(l.Weights) == 0 {
		return fmt.Errorf("model has no weights")
	}
	if math.IsNaN(l.Intercept) || math.IsInf(l.Intercept, 0) {
		return fmt.Errorf("model intercept is not finite")
	}
	for i, w := range l.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("model weight %d is not finite", i)
		}
	}
	return nil
}
