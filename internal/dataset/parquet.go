package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/patientcost/internal/model"
)

// ParquetReader wraps a parquet GenericReader for streaming DatasetRow records.
type ParquetReader struct {
	file   *os.File
	reader *parquet.GenericReader[model.DatasetRow]
	buf    []model.DatasetRow
	pos    int
	n      int
	rowNum int64
	done   bool
}

// OpenParquet opens a Parquet dataset file and validates its schema.
func OpenParquet(path string) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[model.DatasetRow](pf)
	if err := ValidateParquetSchema(r.Schema()); err != nil {
		r.Close()
		f.Close()
		return nil, err
	}
	return &ParquetReader{file: f, reader: r, buf: make([]model.DatasetRow, readBatchSize)}, nil
}

// NumRows returns the total number of rows in the Parquet file.
func (r *ParquetReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (r *ParquetReader) Next() (model.RawRecord, error) {
	for r.pos >= r.n {
		if r.done {
			return model.RawRecord{}, io.EOF
		}
		n, err := r.reader.Read(r.buf)
		r.pos, r.n = 0, n
		if err == io.EOF {
			r.done = true
		} else if err != nil {
			return model.RawRecord{}, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	r.rowNum++
	rec := r.buf[r.pos].Raw(r.rowNum)
	r.pos++
	return rec, nil
}

// Close releases all resources.
func (r *ParquetReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// WriteParquet writes rows to path as a Parquet file.
func WriteParquet(path string, rows []model.DatasetRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	w := parquet.NewGenericWriter[model.DatasetRow](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
