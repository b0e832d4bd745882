// Package config holds the immutable run configuration of an orbitals
// simulation: canvas geometry, node and friendship parameters, force
// thresholds and output locations.
package config

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Default run parameters.
const (
	DefaultSize                   = 10000
	DefaultNodes                  = 400
	DefaultMaxFriends             = 6
	DefaultBackground             = 1.0
	DefaultGrains                 = 30
	DefaultAlpha                  = 0.05
	DefaultSteps                  = 10_000_000
	DefaultSnapshotInterval       = 1000
	DefaultRadius                 = 0.20
	DefaultFar                    = 0.15
	DefaultNear                   = 0.01
	DefaultFriendshipRatio        = 0.1
	DefaultFriendshipInitiateProb = 0.03
	DefaultPointSize              = 1
	DefaultColorPath              = "color/rgb.gif"
	DefaultOutputDir              = "output"
	DefaultDriftScale             = 4.0

	// stepDivisor scales PIXEL into the default motion step.
	stepDivisor = 15.0
)

// ErrInvalid marks a configuration that cannot drive a simulation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full parameter set of one run. It is passed by value and
// never mutated once a simulation has been built from it.
type Config struct {
	Size                   int     `mapstructure:"size" toml:"size"`
	Nodes                  int     `mapstructure:"nodes" toml:"nodes"`
	MaxFriends             int     `mapstructure:"max_friends" toml:"max_friends"`
	Background             float64 `mapstructure:"background" toml:"background"`
	Grains                 int     `mapstructure:"grains" toml:"grains"`
	Alpha                  float64 `mapstructure:"alpha" toml:"alpha"`
	Steps                  int     `mapstructure:"steps" toml:"steps"`
	SnapshotInterval       int     `mapstructure:"snapshot_interval" toml:"snapshot_interval"`
	Radius                 float64 `mapstructure:"radius" toml:"radius"`
	Far                    float64 `mapstructure:"far" toml:"far"`
	Near                   float64 `mapstructure:"near" toml:"near"`
	FriendshipRatio        float64 `mapstructure:"friendship_ratio" toml:"friendship_ratio"`
	FriendshipInitiateProb float64 `mapstructure:"friendship_initiate_prob" toml:"friendship_initiate_prob"`
	// Step is the motion scale STP. Zero selects Pixel()/15.
	Step       float64 `mapstructure:"step" toml:"step"`
	PointSize  int     `mapstructure:"point_size" toml:"point_size"`
	ColorPath  string  `mapstructure:"color_path" toml:"color_path"`
	OutputDir  string  `mapstructure:"output_dir" toml:"output_dir"`
	Seed       int64   `mapstructure:"seed" toml:"seed"`
	Drift      float64 `mapstructure:"drift" toml:"drift"`
	DriftScale float64 `mapstructure:"drift_scale" toml:"drift_scale"`
}

// Default returns the configuration of the reference run.
func Default() Config {
	return Config{
		Size:                   DefaultSize,
		Nodes:                  DefaultNodes,
		MaxFriends:             DefaultMaxFriends,
		Background:             DefaultBackground,
		Grains:                 DefaultGrains,
		Alpha:                  DefaultAlpha,
		Steps:                  DefaultSteps,
		SnapshotInterval:       DefaultSnapshotInterval,
		Radius:                 DefaultRadius,
		Far:                    DefaultFar,
		Near:                   DefaultNear,
		FriendshipRatio:        DefaultFriendshipRatio,
		FriendshipInitiateProb: DefaultFriendshipInitiateProb,
		PointSize:              DefaultPointSize,
		ColorPath:              DefaultColorPath,
		OutputDir:              DefaultOutputDir,
		DriftScale:             DefaultDriftScale,
	}
}

// Pixel is the side of one canvas pixel in normalized coordinates.
func (c Config) Pixel() float64 {
	return 1.0 / float64(c.Size)
}

// StepSize returns the motion scale applied to accumulated displacements.
func (c Config) StepSize() float64 {
	if c.Step > 0 {
		return c.Step
	}
	return c.Pixel() / stepDivisor
}

// Prefix is the snapshot filename prefix shared by every frame of a run.
// Distinct parameter sets never share a prefix.
func (c Config) Prefix() string {
	return fmt.Sprintf("res_c_num%d_fs%d_near%2.4f_far%2.4f_pa%2.4f_pb%2.4f_itt",
		c.Nodes, c.MaxFriends, c.Near, c.Far, c.FriendshipRatio, c.FriendshipInitiateProb)
}

// SnapshotName is the file name of the snapshot taken after iteration iter.
func (c Config) SnapshotName(iter int) string {
	return fmt.Sprintf("%s%05d.png", c.Prefix(), iter)
}

// Validate reports the first parameter that makes the configuration unusable.
func (c Config) Validate() error {
	switch {
	case c.Size < 1:
		return errors.Wrapf(ErrInvalid, "size must be positive, got %d", c.Size)
	case c.Nodes < 2:
		return errors.Wrapf(ErrInvalid, "nodes must be at least 2, got %d", c.Nodes)
	case c.MaxFriends < 1:
		return errors.Wrapf(ErrInvalid, "max_friends must be positive, got %d", c.MaxFriends)
	case c.Background < 0 || c.Background > 1:
		return errors.Wrapf(ErrInvalid, "background must be in [0,1], got %g", c.Background)
	case c.Grains < 0:
		return errors.Wrapf(ErrInvalid, "grains must not be negative, got %d", c.Grains)
	case c.Alpha <= 0 || c.Alpha > 1:
		return errors.Wrapf(ErrInvalid, "alpha must be in (0,1], got %g", c.Alpha)
	case c.Steps < 0:
		return errors.Wrapf(ErrInvalid, "steps must not be negative, got %d", c.Steps)
	case c.SnapshotInterval < 1:
		return errors.Wrapf(ErrInvalid, "snapshot_interval must be positive, got %d", c.SnapshotInterval)
	case c.Radius <= 0:
		return errors.Wrapf(ErrInvalid, "radius must be positive, got %g", c.Radius)
	case c.Near < 0 || c.Near >= c.Far:
		return errors.WithHint(
			errors.Wrapf(ErrInvalid, "near (%g) must be non-negative and below far (%g)", c.Near, c.Far),
			"friends closer than near stop attracting; non-friends closer than far repel")
	case c.FriendshipRatio < 0 || c.FriendshipRatio > 1:
		return errors.Wrapf(ErrInvalid, "friendship_ratio must be in [0,1], got %g", c.FriendshipRatio)
	case c.FriendshipInitiateProb < 0 || c.FriendshipInitiateProb > 1:
		return errors.Wrapf(ErrInvalid, "friendship_initiate_prob must be in [0,1], got %g", c.FriendshipInitiateProb)
	case c.Step < 0:
		return errors.Wrapf(ErrInvalid, "step must not be negative, got %g", c.Step)
	case c.PointSize < 1:
		return errors.Wrapf(ErrInvalid, "point_size must be positive, got %d", c.PointSize)
	case c.OutputDir == "":
		return errors.Wrap(ErrInvalid, "output_dir must be set")
	case c.Drift < 0:
		return errors.Wrapf(ErrInvalid, "drift must not be negative, got %g", c.Drift)
	}
	return nil
}
