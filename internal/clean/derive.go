package clean

import (
	"math"

	"github.com/gyeh/patientcost/internal/model"
)

// RiskScore returns the fixed severity proxy for a primary diagnosis.
func RiskScore(condition string) int {
	return model.RiskScores[condition]
}

// AgeGroup buckets an age into model.AgeGroupLabels. Bins are upper-inclusive;
// age 0 falls in the first bin and ages past the last edge in the last one.
func AgeGroup(age float64) string {
	if math.IsNaN(age) || age < 0 {
		return model.AgeGroupUnknown
	}
	edges := model.AgeGroupEdges
	for i := 1; i < len(edges); i++ {
		if age <= edges[i] {
			return model.AgeGroupLabels[i-1]
		}
	}
	return model.AgeGroupLabels[len(model.AgeGroupLabels)-1]
}
