// Package dataset reads the raw healthcare dataset from CSV or Parquet into
// RawRecords.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gyeh/patientcost/internal/model"
)

const readBatchSize = 1024

// Reader streams RawRecords from a dataset file.
type Reader interface {
	Next() (model.RawRecord, error)
	Close() error
}

// Open picks a reader by file extension (.csv or .parquet).
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return OpenCSV(path)
	case ".parquet", ".pq":
		return OpenParquet(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}

// ReadAll opens path and reads every record.
func ReadAll(path string) ([]model.RawRecord, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []model.RawRecord
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// Write writes rows to path, picking the format by file extension.
func Write(path string, rows []model.DatasetRow) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV(path, rows)
	case ".parquet", ".pq":
		return WriteParquet(path, rows)
	default:
		return fmt.Errorf("unsupported dataset format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}
