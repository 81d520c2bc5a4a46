// Package config loads flatdb settings from defaults, a YAML file,
// FLATDB_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

const (
	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "flatdb.yaml"

	DefaultDataDir     = "data"
	DefaultMaxJoinRows = 1_000_000

	envPrefix = "FLATDB_"
)

// Config holds every setting of the flatdb binary.
type Config struct {
	DataDir     string `koanf:"data_dir"`
	Storage     string `koanf:"storage"`    // csv, parquet or hybrid
	MirrorDir   string `koanf:"mirror_dir"` // hybrid only
	MaxJoinRows int    `koanf:"max_join_rows"`
	AssumeYes   bool   `koanf:"assume_yes"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	SeqURL      string `koanf:"seq_url"`

	// File is the config file that was read, empty if none.
	File string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"data_dir":      DefaultDataDir,
		"storage":       string(storage.CSVStorageType),
		"mirror_dir":    "",
		"max_join_rows": DefaultMaxJoinRows,
		"assume_yes":    false,
		"log_level":     "warn",
		"log_format":    "text",
		"seq_url":       "",
	}
}

// BindFlags registers the flags Load understands.
func BindFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "config file (default "+DefaultConfigFile+" if present)")
	flags.StringP("data-dir", "d", DefaultDataDir, "directory holding the table files")
	flags.String("storage", string(storage.CSVStorageType), "storage backend: csv, parquet or hybrid")
	flags.String("mirror-dir", "", "Parquet mirror directory for hybrid storage")
	flags.Int("max-join-rows", DefaultMaxJoinRows, "largest cross join allowed, 0 for no limit")
	flags.BoolP("yes", "y", false, "answer yes to every confirmation")
	flags.String("log-level", "warn", "log level: debug, info, warn, error or none")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("seq-url", "", "Seq server receiving log events")
}

// findConfigFile returns the explicit path, or the default file if it exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load reads the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// FLATDB_DATA_DIR -> data_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "yes" {
				key = "assume_yes"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = path
	return &cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch storage.StorageType(c.Storage) {
	case storage.CSVStorageType, storage.ParquetStorageType:
	case storage.HybridStorageType:
		if c.MirrorDir == "" {
			errs = append(errs, errors.New("mirror_dir is required for hybrid storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	if c.MaxJoinRows < 0 {
		errs = append(errs, fmt.Errorf("max_join_rows must not be negative, got %d", c.MaxJoinRows))
	}
	if _, err := types.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// LoggerOptions converts the logging settings. Call Validate first.
func (c *Config) LoggerOptions() types.LoggerOptions {
	level, _ := types.ParseLogLevel(c.LogLevel)
	return types.LoggerOptions{
		Level:  level,
		Format: c.LogFormat,
		SeqURL: c.SeqURL,
	}
}
