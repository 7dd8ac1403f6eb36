// Package config loads runtime settings for the holdfast command.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// HOLDFAST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HOLDFAST_"

// Config holds every runtime setting.
type Config struct {
	Seed         int64    `yaml:"seed"           env:"SEED"`
	DBPath       string   `yaml:"db_path"        env:"DB_PATH"`
	SnapshotPath string   `yaml:"snapshot_path"  env:"SNAPSHOT_PATH"`
	CatalogPath  string   `yaml:"catalog_path"   env:"CATALOG_PATH"` // empty uses the built-in catalog
	Days         int      `yaml:"days"           env:"DAYS"`
	LogLevel     string   `yaml:"log_level"      env:"LOG_LEVEL"`
	APIAddr      string   `yaml:"api_addr"       env:"API_ADDR"` // empty disables the HTTP API and /metrics
	AdminKey     string   `yaml:"admin_key"      env:"ADMIN_KEY"`
	CORSOrigins  []string `yaml:"cors_origins"   env:"CORS_ORIGINS" envSeparator:","`
	RandomOrgKey string   `yaml:"random_org_key" env:"RANDOM_ORG_KEY"`
	FamilyName   string   `yaml:"family_name"    env:"FAMILY_NAME"`
	RegionSeed   int64    `yaml:"region_seed"    env:"REGION_SEED"` // 0 disables regional danger
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Seed:         42,
		DBPath:       "data/holdfast.db",
		SnapshotPath: "data/holdfast.snap.zst",
		Days:         30,
		LogLevel:     "info",
		FamilyName:   "Ashford",
		RegionSeed:   7,
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative, got %d", c.Days)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
