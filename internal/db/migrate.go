package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/patientcost/internal/sql"
)

const ledgerDDL = `
CREATE SCHEMA IF NOT EXISTS costmodel;
CREATE TABLE IF NOT EXISTS costmodel.schema_migrations (
    name       text        PRIMARY KEY,
    sha256     text        NOT NULL,
    applied_at timestamptz NOT NULL DEFAULT now()
)`

// ErrMigrationChanged is returned when an applied migration file no longer
// matches the checksum recorded when it ran.
var ErrMigrationChanged = errors.New("applied migration has changed")

// Migration is one embedded migration file and its ledger state.
type Migration struct {
	Name    string
	SHA256  string
	Applied bool // applied by this call rather than already recorded
}

// ApplyMigrations runs the embedded SQL migrations in filename order. Each
// runs in its own transaction and is recorded in costmodel.schema_migrations;
// already-recorded files are skipped. The returned slice covers every file
// examined, including the one that failed.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) ([]Migration, error) {
	entries, err := fs.ReadDir(embedsql.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if _, err := pool.Exec(ctx, ledgerDDL); err != nil {
		return nil, fmt.Errorf("create migration ledger: %w", err)
	}

	var out []Migration
	applied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := fs.ReadFile(embedsql.Migrations, "migrations/"+name)
		if err != nil {
			return out, fmt.Errorf("read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(data)
		checksum := hex.EncodeToString(sum[:])
		out = append(out, Migration{Name: name, SHA256: checksum})

		var recorded string
		err = pool.QueryRow(ctx, "SELECT sha256 FROM costmodel.schema_migrations WHERE name = $1", name).Scan(&recorded)
		switch {
		case err == nil && recorded == checksum:
			log.Debug().Str("migration", name).Msg("migration already applied")
			continue
		case err == nil:
			return out, fmt.Errorf("%w: %s (recorded %s)", ErrMigrationChanged, name, recorded)
		case !errors.Is(err, pgx.ErrNoRows):
			return out, fmt.Errorf("check migration %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("applying migration")
		if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO costmodel.schema_migrations (name, sha256) VALUES ($1, $2)", name, checksum)
			return err
		}); err != nil {
			return out, fmt.Errorf("execute migration %s: %w", name, err)
		}
		out[len(out)-1].Applied = true
		applied++
	}

	log.Info().Int("applied", applied).Int("total", len(out)).Msg("migrations complete")
	return out, nil
}
