package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/db"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/logging"
	"github.com/gyeh/patientcost/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a dataset file and bulk-load predictions into Postgres",
	RunE:  runScore,
}

var scoreDeleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete the predictions of one score batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runScoreDelete,
}

func init() {
	scoreCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to the dataset, .csv or .parquet (required)")
	addModelSourceFlags(scoreCmd)
	_ = scoreCmd.MarkFlagRequired("file")
	scoreCmd.AddCommand(scoreDeleteCmd)
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	est, regPool := loadEstimator(ctx, log)
	pool := regPool
	if pool == nil {
		pool = openPool(ctx, log)
	}
	defer pool.Close()

	summary, err := scoring.Score(ctx, pool, log, est, cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("scoring failed")
		os.Exit(exitcode.PredictionError)
	}

	fmt.Printf("Scoring complete: batch %s, %d rows scored, %d rejected, %d zero-filled positions (%.1fs)\n",
		summary.ScoreBatchID, summary.RowsScored, summary.RowsRejected, summary.ZeroFilled,
		summary.Duration.Seconds())
	return nil
}

func runScoreDelete(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	batchID, err := uuid.Parse(args[0])
	if err != nil {
		log.Error().Err(err).Msg("invalid batch id")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or COSTMODEL_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	n, err := scoring.DeleteBatch(ctx, pool, batchID)
	if err != nil {
		log.Error().Err(err).Msg("delete failed")
		os.Exit(exitcode.DBConnError)
	}
	fmt.Printf("Deleted %d predictions from batch %s\n", n, batchID)
	return nil
}
