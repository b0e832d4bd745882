package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/preview"
	"github.com/olivierh59500/orbitals-go/internal/sim"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run a simulation in a window while writing snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.ComponentLogger("preview")

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

		s, err := sim.New(cfg)
		if err != nil {
			log.Errorw("failed to build simulation", logger.FieldError, err)
			return err
		}

		opts := preview.DefaultOptions()
		opts.Size, _ = cmd.Flags().GetInt("window")
		opts.StepsPerFrame, _ = cmd.Flags().GetInt("steps-per-frame")
		if err := preview.Run(cmd.Context(), s, opts); err != nil {
			log.Errorw("preview stopped", logger.FieldError, err, logger.FieldIteration, s.Iteration())
			return err
		}
		log.Infow("preview closed", logger.FieldIteration, s.Iteration())
		return nil
	},
}

func init() {
	addSimFlags(previewCmd.Flags())
	d := preview.DefaultOptions()
	previewCmd.Flags().Int("window", d.Size, "window side in pixels")
	previewCmd.Flags().Int("steps-per-frame", d.StepsPerFrame, "simulation steps per displayed frame")
}
