package dataset

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/normalize"
)

// ValidateParquetSchema checks that the Parquet schema carries every required column.
func ValidateParquetSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[normalize.Key(field.Name())] = true
	}
	return requireColumns(columns)
}

// ValidateHeader checks that a CSV header carries every required column and
// returns the normalized key for each position.
func ValidateHeader(header []string) ([]string, error) {
	keys := make([]string, len(header))
	columns := make(map[string]bool, len(header))
	for i, h := range header {
		k := normalize.Key(h)
		if columns[k] {
			return nil, fmt.Errorf("duplicate column: %s", h)
		}
		keys[i] = k
		columns[k] = true
	}
	if err := requireColumns(columns); err != nil {
		return nil, err
	}
	return keys, nil
}

func requireColumns(columns map[string]bool) error {
	var missing []string
	for _, col := range model.RequiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
