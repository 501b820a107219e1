package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/model"
	embedsql "github.com/gyeh/patientcost/internal/sql"
)

// ErrNoActiveVersion is returned when the registry has no active model.
var ErrNoActiveVersion = errors.New("registry has no active model version")

// PublishResult reports what Publish changed.
type PublishResult struct {
	RunID            uuid.UUID
	AlreadyPublished bool
	Activated        bool
	Retired          int64
}

// Publish stores a bundle in the registry: the artifacts as jsonb plus one
// costmodel.schema_features row per schema position. With activate set, the
// run becomes the single active version and older versions are retired.
func Publish(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, b *Bundle, activate bool) (*PublishResult, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	schemaJSON, err := json.Marshal(&b.Schema)
	if err != nil {
		return nil, fmt.Errorf("encode schema artifact: %w", err)
	}
	modelJSON, err := json.Marshal(&b.Model)
	if err != nil {
		return nil, fmt.Errorf("encode model artifact: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback(ctx)

	res := &PublishResult{RunID: b.Schema.RunID}
	tag, err := tx.Exec(ctx, embedsql.InsertModelVersion,
		b.Schema.RunID, b.Schema.DatasetSHA256, b.Schema.CreatedAt,
		len(b.Schema.Features), schemaJSON, modelJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("insert model version: %w", err)
	}
	res.AlreadyPublished = tag.RowsAffected() == 0

	if !res.AlreadyPublished {
		scores := make(map[model.FeatureName]float64, len(b.Schema.Scores))
		for _, s := range b.Schema.Scores {
			scores[s.Feature] = s.F
		}
		feats := b.Schema.Features
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"costmodel", "schema_features"},
			[]string{"run_id", "position", "field", "category", "f_score"},
			pgx.CopyFromSlice(len(feats), func(i int) ([]any, error) {
				var score *float64
				if f, ok := scores[feats[i]]; ok {
					score = &f
				}
				return []any{b.Schema.RunID, int32(i), feats[i].Field, feats[i].Category, score}, nil
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("copy schema features: %w", err)
		}
		log.Info().Str("run_id", res.RunID.String()).Int64("features", n).Msg("model version published")
	} else {
		log.Info().Str("run_id", res.RunID.String()).Msg("model version already published")
	}

	if activate {
		tag, err := tx.Exec(ctx, embedsql.DeactivateOtherVersions, b.Schema.RunID)
		if err != nil {
			return nil, fmt.Errorf("retire older versions: %w", err)
		}
		res.Retired = tag.RowsAffected()
		if _, err := tx.Exec(ctx, embedsql.ActivateVersion, b.Schema.RunID); err != nil {
			return nil, fmt.Errorf("activate version: %w", err)
		}
		res.Activated = true
		log.Info().Str("run_id", res.RunID.String()).Int64("retired", res.Retired).Msg("version activated")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit publish: %w", err)
	}
	return res, nil
}

// LoadActive reads the active version from the registry.
func LoadActive(ctx context.Context, pool *pgxpool.Pool) (*Bundle, error) {
	b, err := scanVersion(ctx, pool, pool.QueryRow(ctx, embedsql.SelectActiveVersion))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveVersion
	}
	return b, err
}

// LoadRun reads one version by run ID.
func LoadRun(ctx context.Context, pool *pgxpool.Pool, runID uuid.UUID) (*Bundle, error) {
	b, err := scanVersion(ctx, pool, pool.QueryRow(ctx, embedsql.SelectVersion, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("model version %s not found", runID)
	}
	return b, err
}

// scanVersion decodes a version row and checks its jsonb feature list
// against the enumerated schema_features rows.
func scanVersion(ctx context.Context, pool *pgxpool.Pool, row pgx.Row) (*Bundle, error) {
	var runID uuid.UUID
	var schemaJSON, modelJSON []byte
	if err := row.Scan(&runID, &schemaJSON, &modelJSON); err != nil {
		return nil, err
	}

	var b Bundle
	if err := json.Unmarshal(schemaJSON, &b.Schema); err != nil {
		return nil, fmt.Errorf("decode schema artifact %s: %w", runID, err)
	}
	if err := json.Unmarshal(modelJSON, &b.Model); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", runID, err)
	}

	rows, err := pool.Query(ctx, embedsql.SelectSchemaFeatures, runID)
	if err != nil {
		return nil, fmt.Errorf("query schema features: %w", err)
	}
	feats, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.FeatureName, error) {
		var pos int32
		var f model.FeatureName
		err := r.Scan(&pos, &f.Field, &f.Category)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("read schema features: %w", err)
	}
	if len(feats) != len(b.Schema.Features) {
		return nil, fmt.Errorf("run %s: %d schema_features rows, artifact lists %d", runID, len(feats), len(b.Schema.Features))
	}
	for i := range feats {
		if feats[i] != b.Schema.Features[i] {
			return nil, fmt.Errorf("run %s: schema position %d is %s in registry, %s in artifact",
				runID, i, feats[i], b.Schema.Features[i])
		}
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("model version %s: %w", runID, err)
	}
	return &b, nil
}
