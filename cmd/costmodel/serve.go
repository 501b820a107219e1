package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gyeh/patientcost/internal/cache"
	"github.com/gyeh/patientcost/internal/exitcode"
	"github.com/gyeh/patientcost/internal/logging"
	"github.com/gyeh/patientcost/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve cost estimates over HTTP",
	RunE:  runServe,
}

var flagCacheTTL time.Duration

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.Addr, "addr", ":8000", "HTTP listen address")
	f.StringVar(&cfg.RedisAddr, "redis", "", "Redis address for the prediction cache (disabled when empty)")
	f.DurationVar(&flagCacheTTL, "cache-ttl", cache.DefaultTTL, "Prediction cache TTL")
	addModelSourceFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	est, pool := loadEstimator(ctx, log)
	if pool != nil {
		defer pool.Close()
	}

	var pc server.PredictionCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, flagCacheTTL)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			os.Exit(exitcode.ConfigError)
		}
		defer rc.Close()
		pc = rc
		log.Info().Str("redis", cfg.RedisAddr).Dur("ttl", flagCacheTTL).Msg("prediction cache enabled")
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(est, pc, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(exitcode.UsageError)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}
	return nil
}
