package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	errs "github.com/matzehuels/collage/pkg/errors"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "COLLAGE_"

// Load builds the configuration: defaults, then the TOML file at path (if
// it exists), then a .env file in the working directory, then the
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "read config %s", path)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays COLLAGE_* environment variables onto target.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "cache backend %q: want file, redis or none", c.Cache.Backend)
	}
	if c.Layout.Width < 0 || c.Layout.Height < 0 {
		return errs.New(errs.ErrCodeInvalidCanvas, "layout canvas %gx%g must not be negative", c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.PerImageTimeout < 0 || c.Layout.GlobalTimeout < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "layout timeouts must not be negative")
	}
	return nil
}

// DefaultPath returns collage.toml in the working directory, or "" when it
// does not exist.
func DefaultPath() string {
	const name = "collage.toml"
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return ""
}
