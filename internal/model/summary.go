package model

import "time"

// CleanReport counts what the cleaner kept and why it dropped the rest.
type CleanReport struct {
	RowsRead       int64 `json:"rows_read"`
	RowsKept       int64 `json:"rows_kept"`
	Duplicates     int64 `json:"duplicates"`
	MissingFields  int64 `json:"missing_fields"`
	MalformedDates int64 `json:"malformed_dates"`
	InvalidTarget  int64 `json:"invalid_target"`
	CoercedNumeric int64 `json:"coerced_numeric"`
}

// RowsDropped is the total of all drop reasons.
func (r CleanReport) RowsDropped() int64 {
	return r.Duplicates + r.MissingFields + r.MalformedDates + r.InvalidTarget
}

// TrainSummary captures metrics from a single training run.
type TrainSummary struct {
	RunID            string
	DatasetPath      string
	DatasetSHA256    string
	Clean            CleanReport
	RowsTrain        int
	RowsValidation   int
	RowsTest         int
	WideColumns      int
	SelectedFeatures int
	Lambda           float64
	ValidationRMSE   float64
	TestRMSE         float64
	TestR2           float64
	DurationClean    time.Duration
	DurationEncode   time.Duration
	DurationSelect   time.Duration
	DurationFit      time.Duration
	DurationTotal    time.Duration
}

// ScoreSummary captures metrics from a batch scoring run.
type ScoreSummary struct {
	ScoreBatchID string
	RowsRead     int64
	RowsScored   int64
	RowsRejected int64
	ZeroFilled   int64
	Duration     time.Duration
}
