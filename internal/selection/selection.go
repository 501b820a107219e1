// Package selection ranks encoded columns by a univariate F-test against the
// target and keeps the top K.
package selection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/model"
)

// DefaultK is the number of features kept when no override is configured.
const DefaultK = 20

// maxScore stands in for an infinite F statistic (a perfectly correlated
// column) so scores stay JSON-encodable.
const maxScore = math.MaxFloat64

// ConfigError reports an impossible selection request.
type ConfigError struct {
	K         int
	Available int
}

func (e *ConfigError) Error() string {
	if e.K <= 0 {
		return fmt.Sprintf("feature selection: k must be positive, got %d", e.K)
	}
	return fmt.Sprintf("feature selection: k=%d exceeds %d available columns", e.K, e.Available)
}

// Score is the univariate association of one column with the target.
type Score struct {
	Feature model.FeatureName `json:"feature"`
	F       float64           `json:"f"`
	PValue  float64           `json:"p_value"`
	Rank    int               `json:"rank"`
}

// FRegression computes, for each column independently, the F statistic of a
// single-regressor linear fit against y: F = r²/(1−r²)·(n−2). Constant
// columns score 0.
func FRegression(m *features.Matrix, y []float64) []Score {
	n := float64(len(y))
	scores := make([]Score, len(m.Columns))
	dist := distuv.F{D1: 1, D2: n - 2}

	for j, name := range m.Columns {
		s := Score{Feature: name, PValue: 1}
		r := stat.Correlation(m.Column(j), y, nil)
		switch {
		case math.IsNaN(r) || n <= 2:
			// undefined: constant column or too few rows
		case r*r >= 1:
			s.F = maxScore
			s.PValue = 0
		default:
			s.F = r * r / (1 - r*r) * (n - 2)
			s.PValue = 1 - dist.CDF(s.F)
		}
		scores[j] = s
	}
	return scores
}

// SelectKBest keeps the k highest-scoring columns. Ties keep the original
// column order. The returned schema lists the survivors in their original
// wide-matrix order; scores are returned for every column with Rank set
// (1 = best).
func SelectKBest(m *features.Matrix, y []float64, k int) (model.Schema, []Score, error) {
	if k <= 0 || k > len(m.Columns) {
		return nil, nil, &ConfigError{K: k, Available: len(m.Columns)}
	}
	if len(y) != len(m.Rows) {
		return nil, nil, fmt.Errorf("feature selection: %d rows but %d targets", len(m.Rows), len(y))
	}

	scores := FRegression(m, y)
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]].F > scores[order[b]].F
	})

	keep := make([]bool, len(scores))
	for rank, idx := range order {
		scores[idx].Rank = rank + 1
		if rank < k {
			keep[idx] = true
		}
	}

	schema := make(model.Schema, 0, k)
	for j, name := range m.Columns {
		if keep[j] {
			schema = append(schema, name)
		}
	}
	return schema, scores, nil
}
