// mkfixture writes a synthetic healthcare admissions dataset with a known
// cost structure, optionally salted with duplicate and malformed rows.
// Usage: go run ./cmd/mkfixture --out testdata/admissions.csv --rows 2000 --dirty 0.05
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gyeh/patientcost/internal/dataset"
)

func main() {
	out := flag.String("out", "testdata/admissions.csv", "output file, .csv or .parquet")
	rows := flag.Int("rows", 2000, "rows to generate")
	seed := flag.Int64("seed", 1, "random seed")
	dirty := flag.Float64("dirty", 0, "fraction of rows to corrupt (duplicates, missing values, bad dates)")
	flag.Parse()

	if *rows <= 0 {
		fmt.Fprintln(os.Stderr, "--rows must be positive")
		os.Exit(1)
	}
	if *dirty < 0 || *dirty > 1 {
		fmt.Fprintln(os.Stderr, "--dirty must be within [0, 1]")
		os.Exit(1)
	}

	data := dataset.Synthesize(dataset.SynthOptions{Rows: *rows, Seed: *seed, DirtyFraction: *dirty})
	if err := dataset.Write(*out, data); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(data), *out)
}
