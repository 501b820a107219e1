package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/artifact"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/logging"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Store a trained artifact bundle in the Postgres model registry",
	RunE:  runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&cfg.ArtifactDir, "artifacts", "", "Directory holding schema.json and model.json (required)")
	f.BoolVar(&cfg.ActivateVersion, "activate", false, "Make this run the active model version")
	_ = publishCmd.MarkFlagRequired("artifacts")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or COSTMODEL_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}

	b, err := artifact.LoadDir(cfg.ArtifactDir)
	if err != nil {
		log.Error().Err(err).Msg("failed to load artifacts")
		os.Exit(exitcode.ArtifactError)
	}

	pool := openPool(ctx, log)
	defer pool.Close()

	res, err := artifact.Publish(ctx, pool, log, b, cfg.ActivateVersion)
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		os.Exit(exitcode.DBConnError)
	}

	switch {
	case res.AlreadyPublished && !res.Activated:
		fmt.Printf("Run %s already published\n", res.RunID)
	case res.Activated:
		fmt.Printf("Run %s published and active (%d versions retired)\n", res.RunID, res.Retired)
	default:
		fmt.Printf("Run %s published\n", res.RunID)
	}
	return nil
}
