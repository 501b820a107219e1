package model

// CostComponent is one named share of a predicted cost.
type CostComponent struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Amount float64 `json:"amount"`
}

// BreakdownWeights split a prediction into fixed components. They sum to 1.
var BreakdownWeights = []struct {
	Name   string
	Weight float64
}{
	{"Base Hospitalization", 0.40},
	{"Medical Condition", 0.30},
	{"Procedures", 0.15},
	{"Medications", 0.10},
	{"Room Type", 0.05},
}

// Prediction is the scalar estimate plus its fixed-ratio breakdown.
type Prediction struct {
	PredictedCost float64         `json:"predicted_cost"`
	Breakdown     []CostComponent `json:"breakdown"`
	ModelRunID    string          `json:"model_run_id,omitempty"`
	ZeroFilled    int             `json:"zero_filled"`
}

// NewPrediction applies BreakdownWeights to cost. The last component takes
// the remainder so the amounts, summed in order, equal cost exactly.
func NewPrediction(cost float64) *Prediction {
	p := &Prediction{
		PredictedCost: cost,
		Breakdown:     make([]CostComponent, len(BreakdownWeights)),
	}
	last := len(BreakdownWeights) - 1
	var sum float64
	for i, w := range BreakdownWeights {
		amount := cost * w.Weight
		if i == last {
			amount = cost - sum
		}
		sum += amount
		p.Breakdown[i] = CostComponent{Name: w.Name, Weight: w.Weight, Amount: amount}
	}
	return p
}

// BreakdownMap returns component amounts keyed by name.
func (p *Prediction) BreakdownMap() map[string]float64 {
	m := make(map[string]float64, len(p.Breakdown))
	for _, c := range p.Breakdown {
		m[c.Name] = c.Amount
	}
	return m
}
