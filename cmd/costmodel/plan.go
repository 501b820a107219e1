package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/clean"
	"github.com/gyeh/patientcost/internal/dataset"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/features"
	"github.com/gyeh/patientcost/internal/logging"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/normalize"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and stats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to the dataset, .csv or .parquet (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	if err := applyTrainingConfig(cmd); err != nil {
		log.Error().Err(err).Msg("training config invalid")
		os.Exit(exitcode.ConfigError)
	}

	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ValidationError)
	}
	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}

	raws, err := dataset.ReadAll(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read dataset")
		os.Exit(exitcode.ValidationError)
	}
	res := clean.Batch(raws, model.AllFields, log)

	// The universe here spans the whole file; training fits on its split only.
	enc, err := features.Fit(model.AllFields, res.Records)
	if err != nil {
		log.Error().Err(err).Msg("field rules do not fit the dataset")
		os.Exit(exitcode.ConfigError)
	}
	cols := enc.Columns()

	r := res.Report
	fmt.Println("=== costmodel plan ===")
	fmt.Printf("File:       %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:    %s\n", sha)
	fmt.Printf("Size:       %d bytes\n", stat.Size())
	fmt.Printf("Rows read:  %d\n", r.RowsRead)
	fmt.Printf("Rows kept:  %d\n", r.RowsKept)
	fmt.Println()
	fmt.Println("Dropped:")
	fmt.Printf("  %-16s %d\n", "duplicates", r.Duplicates)
	fmt.Printf("  %-16s %d\n", "missing fields", r.MissingFields)
	fmt.Printf("  %-16s %d\n", "malformed dates", r.MalformedDates)
	fmt.Printf("  %-16s %d\n", "invalid target", r.InvalidTarget)
	fmt.Printf("Coerced numeric cells: %d\n", r.CoercedNumeric)
	fmt.Println()
	fmt.Println("Ignored columns (rows with a value):")
	for _, col := range model.DroppedColumns {
		n := 0
		for _, raw := range raws {
			if _, ok := raw.Value(col); ok {
				n++
			}
		}
		fmt.Printf("  %-16s %d\n", col, n)
	}
	fmt.Println()
	fmt.Println("Encoded columns by field:")
	for _, f := range enc.Fields {
		n := 0
		for _, c := range cols {
			if c.Field == f.Key {
				n++
			}
		}
		if n > 0 {
			fmt.Printf("  %-20s %-12s %d\n", f.Key, f.Kind, n)
		}
	}
	fmt.Printf("\nWide columns: %d (top_k %d)\n", len(cols), cfg.Train.TopK)
	if cfg.Train.TopK > len(cols) {
		fmt.Println("WARNING: top_k exceeds the available columns; training will fail")
	}
	fmt.Println("Schema validation: OK")
	return nil
}
