package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/db"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the model registry and prediction table migrations",
	Long: `Applies the embedded migrations in filename order. Each file is recorded with
its SHA-256 in costmodel.schema_migrations; a recorded file whose contents
changed stops the run with a config error instead of being re-applied.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or COSTMODEL_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool := openPool(ctx, log)
	defer pool.Close()

	results, err := db.ApplyMigrations(ctx, pool, log)
	printMigrations(results)
	if errors.Is(err, db.ErrMigrationChanged) {
		log.Error().Err(err).Msg("ledger checksum mismatch; add a new migration instead of editing an applied one")
		os.Exit(exitcode.ConfigError)
	}
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}
	return nil
}

func printMigrations(results []db.Migration) {
	applied := 0
	for _, m := range results {
		state := "up to date"
		if m.Applied {
			state = "applied"
			applied++
		}
		fmt.Printf("  %-28s %s  %s\n", m.Name, m.SHA256[:12], state)
	}
	fmt.Printf("%d applied, %d already recorded\n", applied, len(results)-applied)
}
