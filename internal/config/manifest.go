package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// ManifestPath is where a run records its configuration: next to its
// snapshots, named after the shared snapshot prefix.
func (c Config) ManifestPath() string {
	return filepath.Join(c.OutputDir, c.Prefix()+".toml")
}

// WriteManifest stores the configuration as TOML at ManifestPath.
func (c Config) WriteManifest() error {
	f, err := os.Create(c.ManifestPath())
	if err != nil {
		return errors.Wrap(err, "failed to create run manifest")
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode run manifest %s", c.ManifestPath())
	}
	return errors.Wrap(f.Close(), "failed to close run manifest")
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to decode run manifest %s", path)
	}
	return cfg, nil
}
