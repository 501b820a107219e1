// Package inference rebuilds a feature vector for a single raw record against
// the frozen schema and scores it.
package inference

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/artifact"
	"github.com/gyeh/patientcost/internal/clean"
	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/regress"
)

// Estimator is built once per process from a validated artifact bundle and
// shared read-only across requests. Only the counters change after New.
type Estimator struct {
	runID  uuid.UUID
	enc    *features.Encoding
	schema model.Schema
	scorer regress.Model
	log    zerolog.Logger

	requests   atomic.Int64
	failures   atomic.Int64
	zeroFilled atomic.Int64
	unused     atomic.Int64
	byPosition []atomic.Int64
}

// Stats is a snapshot of the Estimator counters.
type Stats struct {
	ModelRunID        string           `json:"model_run_id"`
	Features          int              `json:"features"`
	Requests          int64            `json:"requests"`
	Failures          int64            `json:"failures"`
	ZeroFilled        int64            `json:"zero_filled"`
	UnusedCandidates  int64            `json:"unused_candidates"`
	ZeroFilledFeature map[string]int64 `json:"zero_filled_by_feature"`
}

// New validates the bundle and builds an Estimator.
func New(b *artifact.Bundle, log zerolog.Logger) (*Estimator, error) {
	if b == nil {
		return nil, &SchemaMismatchError{Err: fmt.Errorf("no artifact bundle")}
	}
	if err := b.Validate(); err != nil {
		return nil, &SchemaMismatchError{Err: err}
	}
	e := &Estimator{
		runID:      b.Schema.RunID,
		enc:        b.Schema.Encoding,
		schema:     append(model.Schema(nil), b.Schema.Features...),
		scorer:     b.Model.Linear,
		log:        log.With().Str("model_run_id", b.Schema.RunID.String()).Logger(),
		byPosition: make([]atomic.Int64, len(b.Schema.Features)),
	}
	e.log.Info().Int("features", len(e.schema)).Msg("estimator ready")
	return e, nil
}

// LoadDir builds an Estimator from file artifacts.
func LoadDir(dir string, log zerolog.Logger) (*Estimator, error) {
	b, err := artifact.LoadDir(dir)
	if err != nil {
		return nil, &SchemaMismatchError{Err: err}
	}
	return New(b, log)
}

// LoadActive builds an Estimator from the active registry version.
func LoadActive(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) (*Estimator, error) {
	b, err := artifact.LoadActive(ctx, pool)
	if err != nil {
		return nil, &SchemaMismatchError{Err: err}
	}
	return New(b, log)
}

// RunID identifies the training run behind this Estimator.
func (e *Estimator) RunID() uuid.UUID { return e.runID }

// Schema returns a copy of the frozen schema.
func (e *Estimator) Schema() model.Schema {
	return append(model.Schema(nil), e.schema...)
}

// Vector cleans raw with the persisted rule table and aligns its candidates
// to the schema. Positions without a candidate are 0.
func (e *Estimator) Vector(raw model.RawRecord) (model.FeatureVector, features.AlignStats, error) {
	rec, err := clean.Record(raw, e.enc.Fields)
	if err != nil {
		return nil, features.AlignStats{}, &RequestError{Err: err}
	}
	vec, st := e.enc.Vector(rec, e.schema)
	return vec, st, nil
}

// Estimate validates and scores an inference request.
func (e *Estimator) Estimate(req *model.PatientRequest) (*model.Prediction, error) {
	if err := req.Validate(); err != nil {
		e.requests.Add(1)
		e.failures.Add(1)
		return nil, &RequestError{Err: err}
	}
	return e.EstimateRecord(req.RawRecord())
}

// EstimateRecord scores one raw record and splits the result into the fixed
// cost breakdown.
func (e *Estimator) EstimateRecord(raw model.RawRecord) (*model.Prediction, error) {
	e.requests.Add(1)

	vec, st, err := e.Vector(raw)
	if err != nil {
		e.failures.Add(1)
		return nil, err
	}
	e.observe(st)

	cost, err := e.scorer.Predict(vec)
	if err != nil {
		e.failures.Add(1)
		return nil, &PredictionError{Err: err}
	}

	p := model.NewPrediction(cost)
	p.ModelRunID = e.runID.String()
	p.ZeroFilled = len(st.ZeroFilled)
	return p, nil
}

func (e *Estimator) observe(st features.AlignStats) {
	e.zeroFilled.Add(int64(len(st.ZeroFilled)))
	e.unused.Add(int64(len(st.Unused)))
	for _, pos := range st.ZeroFilled {
		e.byPosition[pos].Add(1)
	}
	if ev := e.log.Debug(); ev.Enabled() {
		missing := make([]string, len(st.ZeroFilled))
		for i, pos := range st.ZeroFilled {
			missing[i] = e.schema[pos].String()
		}
		unused := make([]string, len(st.Unused))
		for i, f := range st.Unused {
			unused[i] = f.String()
		}
		ev.Int("matched", st.Matched).
			Strs("zero_filled", missing).
			Strs("unused", unused).
			Msg("feature vector aligned")
	}
}

// Stats returns a snapshot of the counters.
func (e *Estimator) Stats() Stats {
	s := Stats{
		ModelRunID:        e.runID.String(),
		Features:          len(e.schema),
		Requests:          e.requests.Load(),
		Failures:          e.failures.Load(),
		ZeroFilled:        e.zeroFilled.Load(),
		UnusedCandidates:  e.unused.Load(),
		ZeroFilledFeature: make(map[string]int64, len(e.schema)),
	}
	for i := range e.byPosition {
		s.ZeroFilledFeature[e.schema[i].String()] = e.byPosition[i].Load()
	}
	return s
}
