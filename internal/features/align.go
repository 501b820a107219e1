package features

import (
	"sort"

	"github.com/gyeh/patientcost/internal/model"
)

// AlignStats describes how a candidate set mapped onto a schema.
type AlignStats struct {
	Matched    int
	ZeroFilled []int               // schema positions with no candidate
	Unused     []model.FeatureName // candidates no schema position asked for
}

// Align builds a vector with one entry per schema position. Position i takes
// the candidate named by schema[i]; positions with no candidate stay 0.
func Align(cands map[model.FeatureName]float64, schema model.Schema) (model.FeatureVector, AlignStats) {
	vec := make(model.FeatureVector, len(schema))
	var st AlignStats
	wanted := make(map[model.FeatureName]bool, len(schema))

	for i, name := range schema {
		wanted[name] = true
		if v, ok := cands[name]; ok {
			vec[i] = v
			st.Matched++
			continue
		}
		st.ZeroFilled = append(st.ZeroFilled, i)
	}
	for name := range cands {
		if !wanted[name] {
			st.Unused = append(st.Unused, name)
		}
	}
	sort.Slice(st.Unused, func(i, j int) bool {
		return st.Unused[i].String() < st.Unused[j].String()
	})
	return vec, st
}
