// Package features turns cleaned records into numeric feature vectors. The
// Encoding built here is persisted with the schema and re-read at inference,
// so training and serving apply the same rule table, category universes and
// scaling parameters.
package features

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/gyeh/patientcost/internal/model"
)

// Scaling holds training-time z-score statistics for one numeric field.
// Mean doubles as the imputation value for coerced-missing entries.
type Scaling struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Encoding is the fitted, immutable encoding state.
type Encoding struct {
	Fields     []model.Field       `json:"fields"`
	Categories map[string][]string `json:"categories"`
	Scaling    map[string]Scaling  `json:"scaling"`
}

// ConfigError reports a rule table that the training data contradicts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Msg)
}

// Fit captures category universes (in discovery order) and scaling
// statistics from the training records.
func Fit(fields []model.Field, recs []model.CleanRecord) (*Encoding, error) {
	enc := &Encoding{
		Fields:     append([]model.Field(nil), fields...),
		Categories: make(map[string][]string),
		Scaling:    make(map[string]Scaling),
	}

	for _, f := range fields {
		switch f.Kind {
		case model.KindNumeric:
			vals := make([]float64, 0, len(recs))
			for _, r := range recs {
				if v, ok := r.Numeric[f.Key]; ok && !model.IsMissing(v) {
					vals = append(vals, v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			mean, variance := stat.PopMeanVariance(vals, nil)
			std := math.Sqrt(variance)
			if std == 0 || math.IsNaN(std) {
				std = 1
			}
			enc.Scaling[f.Key] = Scaling{Mean: mean, Std: std}

		case model.KindBinary:
			if f.Positive == "" {
				return nil, &ConfigError{Field: f.Key, Msg: "binary field has no declared positive value"}
			}
			seen := discover(recs, f.Key)
			if len(seen) > 2 {
				return nil, &ConfigError{Field: f.Key, Msg: fmt.Sprintf("binary field observed %d values %v", len(seen), seen)}
			}
			// With both values declared, anything else would silently encode as 0.
			if f.Negative != "" {
				for _, v := range seen {
					if !strings.EqualFold(v, f.Positive) && !strings.EqualFold(v, f.Negative) {
						return nil, &ConfigError{Field: f.Key, Msg: fmt.Sprintf("binary field observed %q, declared %q/%q", v, f.Positive, f.Negative)}
					}
				}
			}
			if len(seen) > 0 {
				enc.Categories[f.Key] = seen
			}

		case model.KindCategorical:
			if seen := discover(recs, f.Key); len(seen) > 0 {
				enc.Categories[f.Key] = seen
			}

		default:
			return nil, &ConfigError{Field: f.Key, Msg: fmt.Sprintf("unknown kind %q", f.Kind)}
		}
	}
	return enc, nil
}

func discover(recs []model.CleanRecord, key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range recs {
		for _, c := range r.Categories[key] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Validate checks an Encoding read back from an artifact.
func (e *Encoding) Validate() error {
	if e == nil || len(e.Fields) == 0 {
		return fmt.Errorf("encoding has no fields")
	}
	for key, s := range e.Scaling {
		f, ok := model.FieldByKey(e.Fields, key)
		if !ok || f.Kind != model.KindNumeric {
			return &ConfigError{Field: key, Msg: "scaling parameters for a non-numeric field"}
		}
		if !(s.Std > 0) || math.IsInf(s.Std, 0) || math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) {
			return &ConfigError{Field: key, Msg: fmt.Sprintf("invalid scaling mean=%v std=%v", s.Mean, s.Std)}
		}
	}
	for key := range e.Categories {
		if _, ok := model.FieldByKey(e.Fields, key); !ok {
			return &ConfigError{Field: key, Msg: "categories for an undeclared field"}
		}
	}
	return nil
}

// Columns returns the wide column layout: fields in rule-table order, each
// one-hot field expanded in category discovery order.
func (e *Encoding) Columns() model.Schema {
	var cols model.Schema
	for _, f := range e.Fields {
		switch f.Kind {
		case model.KindNumeric:
			if _, ok := e.Scaling[f.Key]; ok {
				cols = append(cols, model.FeatureName{Field: f.Key})
			}
		case model.KindBinary:
			if len(e.Categories[f.Key]) > 0 {
				cols = append(cols, model.FeatureName{Field: f.Key})
			}
		case model.KindCategorical:
			for _, c := range e.Categories[f.Key] {
				cols = append(cols, model.FeatureName{Field: f.Key, Category: c})
			}
		}
	}
	return cols
}

// Candidates applies the per-field rules to one record and returns every
// feature the record can produce. Categories never seen in training still
// produce a candidate; alignment decides whether any schema position wants it.
func (e *Encoding) Candidates(rec model.CleanRecord) map[model.FeatureName]float64 {
	out := make(map[model.FeatureName]float64)
	for _, f := range e.Fields {
		switch f.Kind {
		case model.KindNumeric:
			v, ok := rec.Numeric[f.Key]
			s, fitted := e.Scaling[f.Key]
			if !ok || !fitted {
				continue
			}
			if model.IsMissing(v) {
				v = s.Mean
			}
			out[model.FeatureName{Field: f.Key}] = (v - s.Mean) / s.Std

		case model.KindBinary:
			cats := rec.Categories[f.Key]
			if len(cats) == 0 {
				continue
			}
			var v float64
			if strings.EqualFold(cats[0], f.Positive) {
				v = 1
			}
			out[model.FeatureName{Field: f.Key}] = v

		case model.KindCategorical:
			for _, c := range rec.Categories[f.Key] {
				out[model.FeatureName{Field: f.Key, Category: c}] = 1
			}
		}
	}
	return out
}

// Vector encodes one record positioned against schema.
func (e *Encoding) Vector(rec model.CleanRecord, schema model.Schema) (model.FeatureVector, AlignStats) {
	return Align(e.Candidates(rec), schema)
}
