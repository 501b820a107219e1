package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/logging"
	"github.com/gyeh/patientcost/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a cost model and write its schema and model artifacts",
	RunE:  runTrain,
}

var (
	flagTopK int
	flagSeed int64
)

func init() {
	f := trainCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to the dataset, .csv or .parquet (required)")
	f.StringVar(&cfg.ArtifactDir, "artifacts", "", "Directory to write schema.json and model.json (required)")
	f.IntVar(&flagTopK, "top-k", 0, "Number of features to keep (overrides config)")
	f.Int64Var(&flagSeed, "seed", 0, "Split seed (overrides config)")
	_ = trainCmd.MarkFlagRequired("file")
	_ = trainCmd.MarkFlagRequired("artifacts")
	rootCmd.AddCommand(trainCmd)
}

// applyTrainingConfig merges the YAML config file and explicit flags, in
// that order, over the defaults.
func applyTrainingConfig(cmd *cobra.Command) error {
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("top-k") {
		cfg.Train.TopK = flagTopK
	}
	if cmd.Flags().Changed("seed") {
		cfg.Train.Seed = flagSeed
	}
	return cfg.Train.Validate()
}

func runTrain(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := applyTrainingConfig(cmd); err != nil {
		log.Error().Err(err).Msg("training config invalid")
		os.Exit(exitcode.ConfigError)
	}

	res, err := train.Run(ctx, log, &cfg)
	if err != nil {
		log.Error().Err(err).Msg("training failed")
		os.Exit(trainExitCode(err))
	}

	s := res.Summary
	fmt.Printf("Training complete: run %s\n", s.RunID)
	fmt.Printf("  rows: %d read, %d kept (%d duplicates, %d missing fields, %d malformed dates, %d invalid target)\n",
		s.Clean.RowsRead, s.Clean.RowsKept, s.Clean.Duplicates, s.Clean.MissingFields,
		s.Clean.MalformedDates, s.Clean.InvalidTarget)
	fmt.Printf("  split: %d train / %d validation / %d test\n", s.RowsTrain, s.RowsValidation, s.RowsTest)
	fmt.Printf("  features: %d of %d encoded columns\n", s.SelectedFeatures, s.WideColumns)
	fmt.Printf("  ridge lambda %.3g, validation RMSE %.2f, test RMSE %.2f, test R² %.3f\n",
		s.Lambda, s.ValidationRMSE, s.TestRMSE, s.TestR2)
	fmt.Printf("  artifacts: %s (%.1fs)\n", cfg.ArtifactDir, s.DurationTotal.Seconds())
	return nil
}
