package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/olivierh59500/orbitals-go/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "orbitals",
	Short: "Orbitals - generative friendship-graph drawings",
	Long: `Orbitals moves a ring of nodes under friend attraction and enemy
repulsion, grows a sparse friendship graph and paints every friendship as
translucent grains onto a large canvas that is snapshotted to PNG.

Examples:
  orbitals run --nodes 400 --steps 100000       # render frames into ./output
  orbitals preview --size 2000 --nodes 200      # watch a run in a window
  orbitals resize --nodes 400                   # downsample frames into ./output_s`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonOutput, level); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit JSON logs")
	rootCmd.PersistentFlags().Bool("trace", false, "export OpenTelemetry spans to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(resizeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()
	if err != nil {
		os.Exit(1)
	}
}
