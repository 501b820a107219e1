// Package artifact persists the outputs of a training run: the schema
// artifact (rule table, category universes, scaling parameters and the
// ordered feature list) and the model artifact.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/regress"
	"github.com/gyeh/patientcost/internal/selection"
)

// FormatVersion is bumped whenever the artifact layout changes incompatibly.
const FormatVersion = 1

const (
	SchemaFile = "schema.json"
	ModelFile  = "model.json"
)

// ModelKindRidge identifies a regress.Linear model.
const ModelKindRidge = "ridge"

// ErrUnknownFeature reports a schema feature the encoding can never produce.
var ErrUnknownFeature = errors.New("feature is not a column of the encoding")

// Schema is the persisted schema artifact.
type Schema struct {
	FormatVersion int                `json:"format_version"`
	RunID         uuid.UUID          `json:"run_id"`
	CreatedAt     time.Time          `json:"created_at"`
	DatasetSHA256 string             `json:"dataset_sha256"`
	K             int                `json:"k"`
	Encoding      *features.Encoding `json:"encoding"`
	Features      model.Schema       `json:"features"`
	Scores        []selection.Score  `json:"scores,omitempty"`
}

// Model is the persisted model artifact.
type Model struct {
	FormatVersion int                        `json:"format_version"`
	RunID         uuid.UUID                  `json:"run_id"`
	Kind          string                     `json:"kind"`
	Linear        *regress.Linear            `json:"linear"`
	Metrics       map[string]regress.Metrics `json:"metrics,omitempty"`
}

// Bundle pairs the two artifacts of one run.
type Bundle struct {
	Schema Schema
	Model  Model
}

// Validate checks that the bundle is complete and internally consistent.
func (b *Bundle) Validate() error {
	if b.Schema.FormatVersion != FormatVersion || b.Model.FormatVersion != FormatVersion {
		return fmt.Errorf("artifact format version %d/%d, want %d",
			b.Schema.FormatVersion, b.Model.FormatVersion, FormatVersion)
	}
	if b.Schema.RunID != b.Model.RunID {
		return fmt.Errorf("schema run %s does not match model run %s", b.Schema.RunID, b.Model.RunID)
	}
	if err := b.Schema.Features.Validate(); err != nil {
		return err
	}
	if err := b.Schema.Encoding.Validate(); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	cols := make(map[model.FeatureName]bool)
	for _, c := range b.Schema.Encoding.Columns() {
		cols[c] = true
	}
	for i, f := range b.Schema.Features {
		if !cols[f] {
			return fmt.Errorf("schema position %d (%s): %w", i, f, ErrUnknownFeature)
		}
	}
	if b.Model.Kind != ModelKindRidge {
		return fmt.Errorf("unsupported model kind %q", b.Model.Kind)
	}
	if err := b.Model.Linear.Validate(); err != nil {
		return err
	}
	if got, want := b.Model.Linear.Inputs(), len(b.Schema.Features); got != want {
		return fmt.Errorf("model expects %d inputs, schema has %d features", got, want)
	}
	return nil
}

// SaveDir writes both artifacts into dir, creating it if needed.
func SaveDir(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, SchemaFile), &b.Schema); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ModelFile), &b.Model)
}

// LoadDir reads and validates both artifacts from dir.
func LoadDir(dir string) (*Bundle, error) {
	var b Bundle
	if err := readJSON(filepath.Join(dir, SchemaFile), &b.Schema); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ModelFile), &b.Model); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", dir, err)
	}
	return &b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
