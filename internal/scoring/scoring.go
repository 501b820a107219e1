// Package scoring estimates every record of a dataset file and COPY-loads the
// predictions into costmodel.predictions.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/dataset"
	"github.com/gyeh/patientcost/internal/db"
	"github.com/gyeh/patientcost/internal/inference"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/normalize"
	embedsql "github.com/gyeh/patientcost/internal/sql"
)

const bufferSize = 1024

// Score streams records from path through est and COPYs the predictions into
// Postgres. Records that fail cleaning or prediction are rejected and logged;
// they do not stop the batch.
func Score(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, est *inference.Estimator, path string) (*model.ScoreSummary, error) {
	start := time.Now()
	batchID := uuid.New()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log = log.With().Str("score_batch_id", batchID.String()).Logger()

	reader, err := dataset.Open(path)
	if err != nil {
		return nil, fmt.Errorf("score open: %w", err)
	}
	defer reader.Close()

	ch := make(chan *model.PredictionRow, bufferSize)
	source := db.NewChannelSource(ctx, ch)
	errCh := make(chan error, 1)
	summary := &model.ScoreSummary{ScoreBatchID: batchID.String()}

	// Producer goroutine: read → estimate → push to channel. A read failure
	// aborts the source so none of the batch is committed.
	go func() {
		defer close(ch)
		p := producer{est: est, batchID: batchID, runID: est.RunID(), log: log, summary: summary}
		for {
			raw, readErr := reader.Next()
			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				err := fmt.Errorf("read dataset: %w", readErr)
				source.Abort(err)
				errCh <- err
				return
			}
			row := p.score(raw)
			if row == nil {
				continue
			}
			select {
			case ch <- row:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	// Consumer: COPY from channel into the predictions table
	rowsScored, err := pool.CopyFrom(ctx,
		pgx.Identifier{"costmodel", "predictions"},
		model.PredictionColumns(),
		source,
	)

	// A failed COPY stops draining the channel; release the producer.
	if err != nil {
		cancel()
	}
	prodErr := <-errCh
	if prodErr != nil {
		log.Error().Err(prodErr).Int64("rows_streamed", source.Rows()).Msg("scoring aborted, batch rolled back")
		return nil, fmt.Errorf("score producer: %w", prodErr)
	}
	if err != nil {
		return nil, fmt.Errorf("score copy: %w", err)
	}

	summary.RowsScored = rowsScored
	summary.Duration = time.Since(start)
	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_scored", summary.RowsScored).
		Int64("rows_rejected", summary.RowsRejected).
		Int64("zero_filled", summary.ZeroFilled).
		Str("duration", summary.Duration.String()).
		Msg("scoring complete")
	return summary, nil
}

// DeleteBatch removes the predictions of one scoring batch.
func DeleteBatch(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (int64, error) {
	tag, err := pool.Exec(ctx, embedsql.DeleteScoreBatch, batchID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type producer struct {
	est     *inference.Estimator
	batchID uuid.UUID
	runID   uuid.UUID
	log     zerolog.Logger
	summary *model.ScoreSummary
}

// score turns one raw record into a PredictionRow, or nil when rejected.
// Counters are only touched from the producer goroutine.
func (p *producer) score(raw model.RawRecord) *model.PredictionRow {
	p.summary.RowsRead++
	pred, err := p.est.EstimateRecord(raw)
	if err != nil {
		p.summary.RowsRejected++
		p.log.Warn().Err(err).Int64("row", raw.Row).Msg("row rejected")
		return nil
	}
	p.summary.ZeroFilled += int64(pred.ZeroFilled)

	row := &model.PredictionRow{
		ScoreBatchID:    p.batchID,
		ModelRunID:      p.runID,
		SourceRowNumber: raw.Row,
		SourceRowHash:   normalize.RowHash(raw.HashFields()),
		PredictedCost:   pred.PredictedCost,
		ZeroFilled:      int32(pred.ZeroFilled),
		ScoredAt:        time.Now().UTC(),
	}
	if v, ok := raw.Value(model.KeyTarget); ok {
		if actual, ok := normalize.ParseNumber(v); ok {
			row.ActualCost = &actual
		}
	}
	return row
}
