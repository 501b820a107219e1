package normalize

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric cell, tolerating thousands separators and a
// leading currency sign. Non-numeric input coerces to NaN with ok=false.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return math.NaN(), false
	}
	return f, true
}
