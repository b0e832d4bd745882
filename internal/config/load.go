package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ORBITALS_NODES.
const EnvPrefix = "ORBITALS"

// SetDefaults registers every configuration key with its default value so
// environment variables and flags can override any of them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("size", d.Size)
	v.SetDefault("nodes", d.Nodes)
	v.SetDefault("max_friends", d.MaxFriends)
	v.SetDefault("background", d.Background)
	v.SetDefault("grains", d.Grains)
	v.SetDefault("alpha", d.Alpha)
	v.SetDefault("steps", d.Steps)
	v.SetDefault("snapshot_interval", d.SnapshotInterval)
	v.SetDefault("radius", d.Radius)
	v.SetDefault("far", d.Far)
	v.SetDefault("near", d.Near)
	v.SetDefault("friendship_ratio", d.FriendshipRatio)
	v.SetDefault("friendship_initiate_prob", d.FriendshipInitiateProb)
	v.SetDefault("step", d.Step)
	v.SetDefault("point_size", d.PointSize)
	v.SetDefault("color_path", d.ColorPath)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("drift", d.Drift)
	v.SetDefault("drift_scale", d.DriftScale)
}

// NewViper returns a viper instance with defaults and environment overrides
// wired. When path is non-empty the TOML file it names is read as well.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
