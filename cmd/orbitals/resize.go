package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/resize"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

var resizeCmd = &cobra.Command{
	Use:   "resize",
	Short: "Downsample the snapshots of one run",
	Long: `Resize picks every snapshot whose name starts with the run prefix,
strips the prefix, zero-pads the frame number and writes a smaller copy.

The prefix is --prefix when given, otherwise it is derived from the same
parameters (flags, --config, ORBITALS_*) that named the frames.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.ComponentLogger("resize")

		prefix, _ := cmd.Flags().GetString("prefix")
		in, _ := cmd.Flags().GetString("in")
		if prefix == "" || in == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				log.Errorw("invalid configuration", logger.FieldError, err)
				return err
			}
			if prefix == "" {
				prefix = cfg.Prefix()
			}
			if in == "" {
				in = cfg.OutputDir
			}
		}

		shutdown, err := startTracing(cmd)
		if err != nil {
			return err
		}
		defer tracing.ShutdownWithTimeout(context.Background(), shutdown, log)

		opts := resize.Options{InputDir: in, Prefix: prefix}
		opts.OutputDir, _ = cmd.Flags().GetString("to")
		opts.Size, _ = cmd.Flags().GetInt("frame-size")
		opts.Width, _ = cmd.Flags().GetInt("width")
		opts.Workers, _ = cmd.Flags().GetInt("workers")

		n, err := resize.Batch(cmd.Context(), opts)
		if err != nil {
			log.Errorw("resize failed", logger.FieldError, err)
			return err
		}
		log.Infow("frames resized", logger.FieldCount, n, "prefix", prefix)
		return nil
	},
}

func init() {
	addSimFlags(resizeCmd.Flags())
	resizeCmd.Flags().String("prefix", "", "snapshot name prefix (default derived from the run parameters)")
	resizeCmd.Flags().String("in", "", "snapshot directory (default --out)")
	resizeCmd.Flags().String("to", resize.DefaultOutputDir, "directory for resized frames")
	resizeCmd.Flags().Int("frame-size", resize.DefaultSize, "side of resized frames in pixels")
	resizeCmd.Flags().Int("width", resize.DefaultWidth, "zero-padded length of output names")
	resizeCmd.Flags().Int("workers", 0, "concurrent frames (0 = GOMAXPROCS)")
}
