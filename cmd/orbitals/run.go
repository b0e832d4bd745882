package main

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/metrics"
	"github.com/olivierh59500/orbitals-go/internal/sim"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation and write snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.ComponentLogger("run")

		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Errorw("invalid configuration", logger.FieldError, err)
			return err
		}

		shutdown, err := startTracing(cmd)
		if err != nil {
			return err
		}
		defer tracing.ShutdownWithTimeout(context.Background(), shutdown, log)

		var opts []sim.Option
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			reg := prometheus.NewRegistry()
			collector, err := metrics.NewCollector(reg)
			if err != nil {
				return err
			}
			stop := serveMetrics(addr, collector, log)
			defer stop()
			opts = append(opts, sim.WithMetrics(collector))
		}

		s, err := sim.New(cfg, opts...)
		if err != nil {
			log.Errorw("failed to build simulation", logger.FieldError, err)
			return err
		}
		if err := s.Run(cmd.Context()); err != nil {
			log.Errorw("simulation failed", logger.FieldError, err, logger.FieldRunID, s.RunID())
			return err
		}
		return nil
	},
}

func init() {
	addSimFlags(runCmd.Flags())
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

// serveMetrics exposes the collector at /metrics until the returned stop
// function is called.
func serveMetrics(addr string, c *metrics.Collector, log *zap.SugaredLogger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infow("serving metrics", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("metrics server stopped", logger.FieldError, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
