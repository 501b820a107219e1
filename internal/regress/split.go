package regress

import (
	"fmt"
	"math"
	"math/rand"
)

// SplitRatios are the train/validation/test shares; they must sum to 1.
type SplitRatios struct {
	Train      float64 `yaml:"train" json:"train"`
	Validation float64 `yaml:"validation" json:"validation"`
	Test       float64 `yaml:"test" json:"test"`
}

// DefaultSplit is 70/15/15.
var DefaultSplit = SplitRatios{Train: 0.70, Validation: 0.15, Test: 0.15}

// Validate checks that all shares are non-negative and sum to 1.
func (r SplitRatios) Validate() error {
	if r.Train <= 0 || r.Validation < 0 || r.Test < 0 {
		return fmt.Errorf("split ratios must be non-negative with a positive train share: %+v", r)
	}
	if math.Abs(r.Train+r.Validation+r.Test-1) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1, got %v", r.Train+r.Validation+r.Test)
	}
	return nil
}

// Split shuffles indices 0..n-1 with seed and cuts them into disjoint
// train, validation and test index sets.
func Split(n int, ratios SplitRatios, seed int64) (train, val, test []int, err error) {
	if err := ratios.Validate(); err != nil {
		return nil, nil, nil, err
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTrain := int(math.Round(float64(n) * ratios.Train))
	nVal := int(math.Round(float64(n) * ratios.Validation))
	if nTrain+nVal > n {
		nVal = n - nTrain
	}
	if nTrain < 3 {
		return nil, nil, nil, fmt.Errorf("split: %d rows leave %d for training, need at least 3", n, nTrain)
	}
	return perm[:nTrain], perm[nTrain : nTrain+nVal], perm[nTrain+nVal:], nil
}
