package main

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/config"
	"github.com/gyeh/patientcost/internal/db"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/inference"
	"github.com/gyeh/patientcost/internal/selection"
	"github.com/gyeh/patientcost/internal/train"
)

var cfg = config.Config{Train: config.DefaultTraining()}

var rootCmd = &cobra.Command{
	Use:   "costmodel",
	Short: "Patient treatment-cost model: train, publish and serve",
	Long: "Cleans a healthcare admissions dataset, selects the top-K encoded features, " +
		"fits a cost regression and serves estimates against the frozen feature schema.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("COSTMODEL_DB_URL"), "Postgres connection string (or set COSTMODEL_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&cfg.ConfigPath, "config", "", "YAML file with training parameters")
}

// addModelSourceFlags registers the flags that choose where an Estimator is
// loaded from.
func addModelSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.ArtifactDir, "artifacts", "", "Directory holding schema.json and model.json")
	f.BoolVar(&cfg.FromRegistry, "from-registry", false, "Load the active model version from Postgres")
}

// openPool connects or exits with DBConnError.
func openPool(ctx context.Context, log zerolog.Logger) *pgxpool.Pool {
	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return pool
}

// loadEstimator builds the Estimator from the configured source. pool is
// non-nil only for a registry load and must be closed by the caller.
func loadEstimator(ctx context.Context, log zerolog.Logger) (*inference.Estimator, *pgxpool.Pool) {
	if err := cfg.ValidateModelSource(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	var (
		est  *inference.Estimator
		pool *pgxpool.Pool
		err  error
	)
	if cfg.FromRegistry {
		pool = openPool(ctx, log)
		est, err = inference.LoadActive(ctx, pool, log)
	} else {
		est, err = inference.LoadDir(cfg.ArtifactDir, log)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load model artifacts")
		os.Exit(exitcode.ArtifactError)
	}
	log.Info().
		Str("model_run_id", est.RunID().String()).
		Int("features", len(est.Schema())).
		Msg("model loaded")
	return est, pool
}

// trainExitCode maps a training failure to a process exit code.
func trainExitCode(err error) int {
	var fcfg *features.ConfigError
	var scfg *selection.ConfigError
	if errors.As(err, &fcfg) || errors.As(err, &scfg) {
		return exitcode.ConfigError
	}
	var pe *train.PipelineError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case "load", "clean", "split":
			return exitcode.ValidationError
		case "save":
			return exitcode.ArtifactError
		}
	}
	return exitcode.TrainError
}
