package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/patientcost/internal/model"
)

// CSVReader streams the raw dataset from a CSV file with a header row.
type CSVReader struct {
	file   *os.File
	csv    *csv.Reader
	keys   []string
	rowNum int64
}

// OpenCSV opens a CSV dataset file and validates its header.
func OpenCSV(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := csv.NewReader(bufio.NewReaderSize(f, 256*1024))
	r.ReuseRecord = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	keys, err := ValidateHeader(header)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &CSVReader{file: f, csv: r, keys: keys}, nil
}

// Next returns the next record, or io.EOF when the file is exhausted.
// Short rows leave their trailing columns absent.
func (r *CSVReader) Next() (model.RawRecord, error) {
	row, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return model.RawRecord{}, io.EOF
	}
	if err != nil {
		return model.RawRecord{}, fmt.Errorf("read csv row %d: %w", r.rowNum+1, err)
	}
	r.rowNum++
	values := make(map[string]string, len(r.keys))
	for i, k := range r.keys {
		if i < len(row) {
			values[k] = row[i]
		}
	}
	return model.RawRecord{Row: r.rowNum, Values: values}, nil
}

// Close releases the underlying file.
func (r *CSVReader) Close() error {
	return r.file.Close()
}

// WriteCSV writes rows to path in the raw dataset layout.
func WriteCSV(path string, rows []model.DatasetRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(model.DatasetColumns); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := w.Write(rows[i].CSVValues()); err != nil {
			f.Close()
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
