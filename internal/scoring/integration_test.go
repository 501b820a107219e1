package scoring_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/patientcost/internal/artifact"
	"github.com/gyeh/patientcost/internal/config"
	"github.com/gyeh/patientcost/internal/dataset"
	"github.com/gyeh/patientcost/internal/db"
	"github.com/gyeh/patientcost/internal/inference"
	"github.com/gyeh/patientcost/internal/scoring"
	"github.com/gyeh/patientcost/internal/train"
)

const (
	testPort     = 15433
	testDB       = "costmodeltest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("COSTMODEL_PG_TESTS") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set COSTMODEL_PG_TESTS=1 to run Postgres integration tests")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)
	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

// setupDB connects, drops the costmodel schema and re-applies migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS costmodel CASCADE"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if _, err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// trainRun trains on a fresh synthetic dataset and returns the bundle and
// the dataset path.
func trainRun(t *testing.T, seed int64) (*artifact.Bundle, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "admissions.csv")
	rows := dataset.Synthesize(dataset.SynthOptions{Rows: 400, Seed: seed, DirtyFraction: 0.05})
	if err := dataset.Write(path, rows); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	cfg := &config.Config{FilePath: path, Train: config.DefaultTraining()}
	res, err := train.Run(context.Background(), zerolog.Nop(), cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	return res.Bundle, path
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	results, err := db.ApplyMigrations(ctx, pool, zerolog.Nop())
	if err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("%d migrations reported, want 2", len(results))
	}
	for _, m := range results {
		if m.Applied {
			t.Errorf("%s re-applied on a second run", m.Name)
		}
		if len(m.SHA256) != 64 {
			t.Errorf("%s checksum %q", m.Name, m.SHA256)
		}
	}
	var n int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM costmodel.schema_migrations").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("ledger has %d entries, want 2", n)
	}

	if _, err := pool.Exec(ctx, "UPDATE costmodel.schema_migrations SET sha256 = 'x' WHERE name = '001_registry.sql'"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); !errors.Is(err, db.ErrMigrationChanged) {
		t.Errorf("err = %v, want ErrMigrationChanged", err)
	}
}

func TestPublishAndLoadActive(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	if _, err := artifact.LoadActive(ctx, pool); !errors.Is(err, artifact.ErrNoActiveVersion) {
		t.Fatalf("empty registry: err = %v, want ErrNoActiveVersion", err)
	}

	first, _ := trainRun(t, 1)
	res, err := artifact.Publish(ctx, pool, log, first, true)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Activated || res.AlreadyPublished {
		t.Errorf("first publish = %+v", res)
	}

	var rows int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM costmodel.schema_features WHERE run_id = $1", first.Schema.RunID,
	).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != len(first.Schema.Features) {
		t.Errorf("schema_features rows = %d, want %d", rows, len(first.Schema.Features))
	}

	again, err := artifact.Publish(ctx, pool, log, first, false)
	if err != nil {
		t.Fatalf("re-publish: %v", err)
	}
	if !again.AlreadyPublished {
		t.Error("re-publish not reported as already published")
	}

	second, _ := trainRun(t, 2)
	res, err = artifact.Publish(ctx, pool, log, second, true)
	if err != nil {
		t.Fatalf("Publish second: %v", err)
	}
	if res.Retired != 1 {
		t.Errorf("retired = %d, want 1", res.Retired)
	}

	active, err := artifact.LoadActive(ctx, pool)
	if err != nil {
		t.Fatalf("LoadActive: %v", err)
	}
	if active.Schema.RunID != second.Schema.RunID {
		t.Errorf("active run = %s, want %s", active.Schema.RunID, second.Schema.RunID)
	}
	for i, f := range active.Schema.Features {
		if f != second.Schema.Features[i] {
			t.Errorf("position %d = %s, want %s", i, f, second.Schema.Features[i])
		}
	}

	old, err := artifact.LoadRun(ctx, pool, first.Schema.RunID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if old.Model.Linear.Inputs() != len(first.Schema.Features) {
		t.Error("retired run did not round-trip")
	}
}

func TestLoadActive_DetectsSchemaDrift(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	b, _ := trainRun(t, 3)
	if _, err := artifact.Publish(ctx, pool, zerolog.Nop(), b, true); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := pool.Exec(ctx,
		"UPDATE costmodel.schema_features SET category = 'drifted' WHERE run_id = $1 AND position = 0",
		b.Schema.RunID,
	); err != nil {
		t.Fatal(err)
	}
	if _, err := inference.LoadActive(ctx, pool, zerolog.Nop()); err == nil {
		t.Fatal("expected schema mismatch after registry drift")
	}
}

func TestScore(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	b, path := trainRun(t, 4)
	if _, err := artifact.Publish(ctx, pool, log, b, true); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	est, err := inference.LoadActive(ctx, pool, log)
	if err != nil {
		t.Fatalf("LoadActive: %v", err)
	}

	summary, err := scoring.Score(ctx, pool, log, est, path)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if summary.RowsRead != 400 {
		t.Errorf("rows read = %d, want 400", summary.RowsRead)
	}
	if summary.RowsRejected == 0 {
		t.Error("expected malformed-date rows to be rejected")
	}
	if summary.RowsScored != summary.RowsRead-summary.RowsRejected {
		t.Errorf("scored %d of %d read with %d rejected", summary.RowsScored, summary.RowsRead, summary.RowsRejected)
	}

	var stored int64
	var withActual int64
	if err := pool.QueryRow(ctx,
		"SELECT count(*), count(actual_cost) FROM costmodel.predictions WHERE score_batch_id = $1",
		summary.ScoreBatchID,
	).Scan(&stored, &withActual); err != nil {
		t.Fatal(err)
	}
	if stored != summary.RowsScored {
		t.Errorf("stored %d predictions, scored %d", stored, summary.RowsScored)
	}
	if withActual == 0 {
		t.Error("expected actual costs to be carried")
	}

	batchID, err := uuid.Parse(summary.ScoreBatchID)
	if err != nil {
		t.Fatal(err)
	}
	deleted, err := scoring.DeleteBatch(ctx, pool, batchID)
	if err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if deleted != stored {
		t.Errorf("deleted %d, want %d", deleted, stored)
	}
}

func TestScore_ReadErrorRollsBack(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := zerolog.Nop()

	b, path := trainRun(t, 5)
	if _, err := artifact.Publish(ctx, pool, log, b, true); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	est, err := inference.New(b, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	broken := append([]string{}, lines[:300]...)
	broken = append(broken, `Bad"Quote,40`)
	broken = append(broken, lines[300:]...)
	brokenPath := filepath.Join(t.TempDir(), "broken.csv")
	if err := os.WriteFile(brokenPath, []byte(strings.Join(broken, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := scoring.Score(ctx, pool, log, est, brokenPath); err == nil {
		t.Fatal("expected a read error")
	}

	var stored int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM costmodel.predictions").Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if stored != 0 {
		t.Errorf("%d predictions committed from a failed batch, want 0", stored)
	}
}
