// Package train runs the offline training pipeline: load → clean → split →
// encode → select → fit → evaluate → save.
package train

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/artifact"
	"github.com/gyeh/patientcost/internal/clean"
	"github.com/gyeh/patientcost/internal/config"
	"github.com/gyeh/patientcost/internal/dataset"
	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/normalize"
	"github.com/gyeh/patientcost/internal/regress"
	"github.com/gyeh/patientcost/internal/selection"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Result is the output of a training run.
type Result struct {
	Bundle  *artifact.Bundle
	Summary *model.TrainSummary
}

// Run executes the full training pipeline. Everything fitted (category
// universes, scaling, feature scores, model weights) sees only the training
// partition; validation picks the ridge penalty; test is scored once at the end.
// When cfg.ArtifactDir is set the artifacts are written there.
func Run(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*Result, error) {
	totalStart := time.Now()
	runID := uuid.New()
	log = log.With().Str("run_id", runID.String()).Logger()

	// Phase 1: Load
	log.Info().Str("file", cfg.FilePath).Msg("loading dataset")
	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: err}
	}
	raws, err := dataset.ReadAll(cfg.FilePath)
	if err != nil {
		return nil, &PipelineError{Phase: "load", Err: err}
	}

	// Phase 2: Clean
	cleaned := clean.Batch(raws, model.AllFields, log)
	if len(cleaned.Records) == 0 {
		return nil, &PipelineError{Phase: "clean", Err: fmt.Errorf("no records survived cleaning (%d read)", cleaned.Report.RowsRead)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Phase: "clean", Err: err}
	}

	// Phase 3: Split
	trainIdx, valIdx, testIdx, err := regress.Split(len(cleaned.Records), cfg.Train.Split, cfg.Train.Seed)
	if err != nil {
		return nil, &PipelineError{Phase: "split", Err: err}
	}
	trainRecs := pick(cleaned.Records, trainIdx)
	valRecs := pick(cleaned.Records, valIdx)
	testRecs := pick(cleaned.Records, testIdx)
	log.Info().
		Int("train", len(trainRecs)).
		Int("validation", len(valRecs)).
		Int("test", len(testRecs)).
		Int64("seed", cfg.Train.Seed).
		Msg("split complete")

	// Phase 4: Encode
	encodeStart := time.Now()
	enc, err := features.Fit(model.AllFields, trainRecs)
	if err != nil {
		return nil, &PipelineError{Phase: "encode", Err: err}
	}
	wide := enc.Matrix(trainRecs, enc.Columns())
	encodeDur := time.Since(encodeStart)
	log.Info().
		Int("columns", len(wide.Columns)).
		Int("rows", len(wide.Rows)).
		Dur("duration", encodeDur).
		Msg("encode complete")

	// Phase 5: Select
	selectStart := time.Now()
	schema, scores, err := selection.SelectKBest(wide, wide.Target, cfg.Train.TopK)
	if err != nil {
		return nil, &PipelineError{Phase: "select", Err: err}
	}
	selectDur := time.Since(selectStart)
	log.Info().
		Int("k", cfg.Train.TopK).
		Strs("features", schema.Names()).
		Dur("duration", selectDur).
		Msg("feature selection complete")
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Phase: "select", Err: err}
	}

	// Phase 6: Fit
	fitStart := time.Now()
	trainPart := partition(enc.Matrix(trainRecs, schema))
	valPart := partition(enc.Matrix(valRecs, schema))
	lin, valMetrics, err := regress.Fit(trainPart, valPart, cfg.Train.RidgeLambdas, log)
	if err != nil {
		return nil, &PipelineError{Phase: "fit", Err: err}
	}
	fitDur := time.Since(fitStart)

	// Phase 7: Evaluate
	trainMetrics, err := regress.Evaluate(lin, trainPart.X, trainPart.Y)
	if err != nil {
		return nil, &PipelineError{Phase: "evaluate", Err: err}
	}
	testPart := partition(enc.Matrix(testRecs, schema))
	testMetrics, err := regress.Evaluate(lin, testPart.X, testPart.Y)
	if err != nil {
		return nil, &PipelineError{Phase: "evaluate", Err: err}
	}
	log.Info().
		Float64("lambda", lin.Lambda).
		Float64("train_rmse", trainMetrics.RMSE).
		Float64("validation_rmse", valMetrics.RMSE).
		Float64("test_rmse", testMetrics.RMSE).
		Float64("test_r2", testMetrics.R2).
		Dur("duration", fitDur).
		Msg("model fit complete")

	bundle := &artifact.Bundle{
		Schema: artifact.Schema{
			FormatVersion: artifact.FormatVersion,
			RunID:         runID,
			CreatedAt:     time.Now().UTC(),
			DatasetSHA256: sha,
			K:             cfg.Train.TopK,
			Encoding:      enc,
			Features:      schema,
			Scores:        scores,
		},
		Model: artifact.Model{
			FormatVersion: artifact.FormatVersion,
			RunID:         runID,
			Kind:          artifact.ModelKindRidge,
			Linear:        lin,
			Metrics: map[string]regress.Metrics{
				"train":      trainMetrics,
				"validation": valMetrics,
				"test":       testMetrics,
			},
		},
	}

	// Phase 8: Save
	if cfg.ArtifactDir != "" {
		if err := artifact.SaveDir(cfg.ArtifactDir, bundle); err != nil {
			return nil, &PipelineError{Phase: "save", Err: err}
		}
		log.Info().Str("dir", cfg.ArtifactDir).Msg("artifacts written")
	}

	summary := &model.TrainSummary{
		RunID:            runID.String(),
		DatasetPath:      cfg.FilePath,
		DatasetSHA256:    sha,
		Clean:            cleaned.Report,
		RowsTrain:        len(trainRecs),
		RowsValidation:   len(valRecs),
		RowsTest:         len(testRecs),
		WideColumns:      len(wide.Columns),
		SelectedFeatures: len(schema),
		Lambda:           lin.Lambda,
		ValidationRMSE:   valMetrics.RMSE,
		TestRMSE:         testMetrics.RMSE,
		TestR2:           testMetrics.R2,
		DurationClean:    cleaned.Duration,
		DurationEncode:   encodeDur,
		DurationSelect:   selectDur,
		DurationFit:      fitDur,
		DurationTotal:    time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.Clean.RowsRead).
		Int64("rows_dropped", summary.Clean.RowsDropped()).
		Int("features", summary.SelectedFeatures).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("training pipeline complete")

	return &Result{Bundle: bundle, Summary: summary}, nil
}

func pick(recs []model.CleanRecord, idx []int) []model.CleanRecord {
	out := make([]model.CleanRecord, len(idx))
	for i, j := range idx {
		out[i] = recs[j]
	}
	return out
}

func partition(m *features.Matrix) regress.Partition {
	x := make([][]float64, len(m.Rows))
	for i, r := range m.Rows {
		x[i] = r
	}
	return regress.Partition{X: x, Y: m.Target}
}
