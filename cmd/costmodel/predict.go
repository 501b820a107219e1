package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/inference"
	"github.com/gyeh/patientcost/internal/logging"
	"github.com/gyeh/patientcost/internal/model"
	"github.com/gyeh/patientcost/internal/server"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate the cost of one patient request read from a JSON file",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&cfg.RequestPath, "request", "-", "Path to a JSON patient request, or - for stdin")
	addModelSourceFlags(predictCmd)
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	est, pool := loadEstimator(ctx, log)
	if pool != nil {
		defer pool.Close()
	}

	req, err := readRequest(cfg.RequestPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read request")
		os.Exit(exitcode.UsageError)
	}

	p, err := est.Estimate(req)
	if err != nil {
		var reqErr *inference.RequestError
		if errors.As(err, &reqErr) {
			log.Error().Err(err).Msg("invalid request")
			os.Exit(exitcode.ValidationError)
		}
		log.Error().Err(err).Msg("prediction failed")
		fmt.Fprintln(os.Stderr, server.PredictionMessage)
		os.Exit(exitcode.PredictionError)
	}

	out := map[string]any{
		"predicted_cost": p.PredictedCost,
		"breakdown":      p.BreakdownMap(),
		"model_run_id":   p.ModelRunID,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readRequest(path string) (*model.PatientRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var req model.PatientRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}
