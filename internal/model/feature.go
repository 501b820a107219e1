package model

import "fmt"

// FeatureName identifies one encoded column. Numeric and binary columns have
// an empty Category; one-hot dummies carry the category they indicate.
type FeatureName struct {
	Field    string `json:"field"`
	Category string `json:"category,omitempty"`
}

// String renders the name for display and logs. It is never parsed back.
func (f FeatureName) String() string {
	if f.Category == "" {
		return f.Field
	}
	return f.Field + "_" + f.Category
}

// Schema is the frozen, ordered list of features a trained model expects.
type Schema []FeatureName

// Validate checks that the schema is non-empty and has no repeated entries.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("schema is empty")
	}
	seen := make(map[FeatureName]int, len(s))
	for i, f := range s {
		if f.Field == "" {
			return fmt.Errorf("schema position %d has no field", i)
		}
		if j, dup := seen[f]; dup {
			return fmt.Errorf("schema positions %d and %d both name %s", j, i, f)
		}
		seen[f] = i
	}
	return nil
}

// Index returns the position of every feature in the schema.
func (s Schema) Index() map[FeatureName]int {
	idx := make(map[FeatureName]int, len(s))
	for i, f := range s {
		idx[f] = i
	}
	return idx
}

// Names returns display names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.String()
	}
	return out
}

// FeatureVector is a dense vector positioned against a Schema.
type FeatureVector []float64
