package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/patientcost/internal/regress"
	"github.com/gyeh/patientcost/internal/selection"
)

// Config holds all runtime configuration for a costmodel run.
type Config struct {
	DSN             string
	FilePath        string
	ArtifactDir     string
	RequestPath     string
	LogFormat       string // "text" or "json"
	LogLevel        string
	ConfigPath      string
	Addr            string
	RedisAddr       string
	ActivateVersion bool
	FromRegistry    bool

	Train Training
}

// Training holds the parameters of a training run.
type Training struct {
	TopK         int                 `yaml:"top_k"`
	Seed         int64               `yaml:"seed"`
	Split        regress.SplitRatios `yaml:"split"`
	RidgeLambdas []float64           `yaml:"ridge_lambdas"`
}

// DefaultTraining returns the training parameters used when no config file
// or flag overrides them.
func DefaultTraining() Training {
	return Training{
		TopK:         selection.DefaultK,
		Seed:         42,
		Split:        regress.DefaultSplit,
		RidgeLambdas: []float64{0.1, 1, 10},
	}
}

// yamlConfig is the on-disk YAML structure. Pointers distinguish an absent
// key from an explicit zero.
type yamlConfig struct {
	TopK         *int                 `yaml:"top_k"`
	Seed         *int64               `yaml:"seed"`
	Split        *regress.SplitRatios `yaml:"split"`
	RidgeLambdas []float64            `yaml:"ridge_lambdas"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.Train.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.TopK != nil {
		c.Train.TopK = *yc.TopK
	}
	if yc.Seed != nil {
		c.Train.Seed = *yc.Seed
	}
	if yc.Split != nil {
		c.Train.Split = *yc.Split
	}
	if len(yc.RidgeLambdas) > 0 {
		c.Train.RidgeLambdas = yc.RidgeLambdas
	}
	return c.Train.Validate()
}

// Validate checks the training parameters.
func (t Training) Validate() error {
	if t.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", t.TopK)
	}
	if err := t.Split.Validate(); err != nil {
		return err
	}
	if len(t.RidgeLambdas) == 0 {
		return fmt.Errorf("ridge_lambdas must not be empty")
	}
	for _, l := range t.RidgeLambdas {
		if l < 0 {
			return fmt.Errorf("ridge_lambdas must be non-negative, got %v", l)
		}
	}
	return nil
}

// Validate checks that the dataset file is set and readable.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks both file and DSN fields.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or COSTMODEL_DB_URL is required")
	}
	return nil
}

// ValidateModelSource checks that exactly one artifact source is configured:
// a local artifact directory or the active registry version.
func (c *Config) ValidateModelSource() error {
	switch {
	case c.FromRegistry && c.ArtifactDir != "":
		return fmt.Errorf("--artifacts and --from-registry are mutually exclusive")
	case c.FromRegistry:
		if c.DSN == "" {
			return fmt.Errorf("--from-registry needs --dsn or COSTMODEL_DB_URL")
		}
	case c.ArtifactDir == "":
		return fmt.Errorf("--artifacts or --from-registry is required")
	}
	return nil
}
