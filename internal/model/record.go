package model

import (
	"math"
	"sort"
	"strings"
)

// RawRecord is a captured dataset row or request, keyed by normalized field name.
// Values holds single-valued cells; Sets holds multi-select fields.
type RawRecord struct {
	Row    int64
	Values map[string]string
	Sets   map[string][]string
}

// Value returns the raw value for key and whether it is present and non-empty.
func (r RawRecord) Value(key string) (string, bool) {
	v, ok := r.Values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// HashFields flattens the record into a key→value map for row hashing.
// Set members are sorted so selection order does not change identity.
func (r RawRecord) HashFields() map[string]string {
	out := make(map[string]string, len(r.Values)+len(r.Sets))
	for k, v := range r.Values {
		out[k] = v
	}
	for k, vs := range r.Sets {
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		out["set:"+k] = strings.Join(sorted, "\x1f")
	}
	return out
}

// CleanRecord is a record after cleaning and derivation, ready for encoding.
// Numeric values that failed coercion are NaN and get imputed at encode time.
type CleanRecord struct {
	Row        int64
	Numeric    map[string]float64
	Categories map[string][]string
	Target     float64
	HasTarget  bool
}

// NewCleanRecord returns an empty CleanRecord for the given source row.
func NewCleanRecord(row int64) CleanRecord {
	return CleanRecord{
		Row:        row,
		Numeric:    make(map[string]float64),
		Categories: make(map[string][]string),
	}
}

// IsMissing reports whether v is the coerced-missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
