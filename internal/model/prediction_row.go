package model

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRow is one batch-scored record, ready for COPY into costmodel.predictions.
type PredictionRow struct {
	ScoreBatchID    uuid.UUID
	ModelRunID      uuid.UUID
	SourceRowNumber int64
	SourceRowHash   []byte
	PredictedCost   float64
	ActualCost      *float64
	ZeroFilled      int32
	ScoredAt        time.Time
}

// PredictionColumns returns the ordered column names for COPY into costmodel.predictions.
func PredictionColumns() []string {
	return []string{
		"score_batch_id",
		"model_run_id",
		"source_row_number",
		"source_row_hash",
		"predicted_cost",
		"actual_cost",
		"zero_filled",
		"scored_at",
	}
}

// CopyValues returns the row values in the same order as PredictionColumns().
func (r *PredictionRow) CopyValues() []any {
	return []any{
		r.ScoreBatchID,
		r.ModelRunID,
		r.SourceRowNumber,
		r.SourceRowHash,
		r.PredictedCost,
		r.ActualCost,
		r.ZeroFilled,
		r.ScoredAt,
	}
}
