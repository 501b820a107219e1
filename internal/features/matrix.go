package features

import "github.com/gyeh/patientcost/internal/model"

// Matrix is an encoded batch: one row per record, one column per schema entry.
type Matrix struct {
	Columns model.Schema
	Rows    []model.FeatureVector
	Target  []float64
}

// Matrix encodes recs against schema through the same path as a single
// inference vector.
func (e *Encoding) Matrix(recs []model.CleanRecord, schema model.Schema) *Matrix {
	m := &Matrix{
		Columns: schema,
		Rows:    make([]model.FeatureVector, len(recs)),
		Target:  make([]float64, len(recs)),
	}
	for i, r := range recs {
		m.Rows[i], _ = e.Vector(r, schema)
		m.Target[i] = r.Target
	}
	return m
}

// Column returns a copy of column j.
func (m *Matrix) Column(j int) []float64 {
	col := make([]float64, len(m.Rows))
	for i, r := range m.Rows {
		col[i] = r[j]
	}
	return col
}
