package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/olivierh59500/orbitals-go/internal/config"
	"github.com/olivierh59500/orbitals-go/internal/logger"
	"github.com/olivierh59500/orbitals-go/internal/tracing"
)

// simFlags maps configuration keys to command-line flags.
var simFlags = map[string]string{
	"size":                     "size",
	"nodes":                    "nodes",
	"max_friends":              "max-friends",
	"background":               "background",
	"grains":                   "grains",
	"alpha":                    "alpha",
	"steps":                    "steps",
	"snapshot_interval":        "interval",
	"radius":                   "radius",
	"far":                      "far",
	"near":                     "near",
	"friendship_ratio":         "ratio",
	"friendship_initiate_prob": "initiate",
	"step":                     "step",
	"point_size":               "point-size",
	"color_path":               "colors",
	"output_dir":               "out",
	"seed":                     "seed",
	"drift":                    "drift",
	"drift_scale":              "drift-scale",
}

// addSimFlags registers the simulation parameters on fs. Defaults come from
// the configuration layer; flags only override values the user sets.
func addSimFlags(fs *pflag.FlagSet) {
	d := config.Default()
	fs.Int("size", d.Size, "canvas side in pixels")
	fs.Int("nodes", d.Nodes, "number of nodes")
	fs.Int("max-friends", d.MaxFriends, "maximum friendships per node")
	fs.Float64("background", d.Background, "background gray level in [0,1]")
	fs.Int("grains", d.Grains, "dots drawn per edge per step")
	fs.Float64("alpha", d.Alpha, "opacity of each dot")
	fs.Int("steps", d.Steps, "number of steps")
	fs.Int("interval", d.SnapshotInterval, "steps between snapshots")
	fs.Float64("radius", d.Radius, "radius of the starting circle")
	fs.Float64("far", d.Far, "non-friends closer than this repel")
	fs.Float64("near", d.Near, "friends closer than this stop attracting")
	fs.Float64("ratio", d.FriendshipRatio, "probability a candidate accepts a friendship")
	fs.Float64("initiate", d.FriendshipInitiateProb, "probability of a friendship attempt per step")
	fs.Float64("step", d.Step, "motion scale (0 = pixel/15)")
	fs.Int("point-size", d.PointSize, "dot side in pixels")
	fs.String("colors", d.ColorPath, "image whose pixels form the palette")
	fs.String("out", d.OutputDir, "snapshot directory")
	fs.Int64("seed", d.Seed, "random seed (0 = time based)")
	fs.Float64("drift", d.Drift, "amplitude of the Perlin drift (0 = off)")
	fs.Float64("drift-scale", d.DriftScale, "spatial frequency of the Perlin drift")
}

// loadConfig merges defaults, the --config file, ORBITALS_* variables and
// the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(path)
	if err != nil {
		return config.Config{}, err
	}
	for key, name := range simFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Config{}, errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return config.Load(v)
}

// startTracing honours --trace and returns the matching shutdown hook.
func startTracing(cmd *cobra.Command) (func(context.Context) error, error) {
	enabled, _ := cmd.Flags().GetBool("trace")
	return tracing.Init(cmd.Context(), tracing.Config{
		Enabled:     enabled,
		ServiceName: "orbitals",
	}, logger.ComponentLogger("tracing"))
}
