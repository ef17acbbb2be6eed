// Package config loads kinbranch configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KINBRANCH_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json" // dataset loaded into memory at startup
)

// Config is the full configuration.
type Config struct {
	Store    StoreConfig    `koanf:"store"`
	Branches BranchesConfig `koanf:"branches"`
	Log      LogConfig      `koanf:"log"`
}

// StoreConfig selects the record store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	// ShowPrivate disables the privacy filter.
	ShowPrivate bool `koanf:"show_private"`
}

// BranchesConfig tunes the branch engine.
type BranchesConfig struct {
	MaxDepth    int    `koanf:"max_depth"`
	Parallelism int    `koanf:"parallelism"`
	Language    string `koanf:"language"` // BCP 47 tag for case folding
	// RelationshipURL is a text/template for ancestor chart links.
	// Empty disables Sosa annotations.
	RelationshipURL string `koanf:"relationship_url"`
	SoundexStd      bool   `koanf:"soundex_std"`
	SoundexDM       bool   `koanf:"soundex_dm"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "kinbranch.db",
		},
		Branches: BranchesConfig{
			MaxDepth:    256,
			Parallelism: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables (KINBRANCH_STORE_PATH, KINBRANCH_BRANCHES_MAX_DEPTH, ...)
//  2. YAML file at path, when path is non-empty
//  3. Defaults
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// KINBRANCH_BRANCHES_MAX_DEPTH -> branches.max_depth
	// Split on the first underscore only; field names keep theirs.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, field, ok := strings.Cut(lower, "_")
		if !ok {
			return lower
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks values that cannot be checked by type alone.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverJSON:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Branches.MaxDepth < 0 {
		return fmt.Errorf("branches.max_depth must be >= 0, got %d", c.Branches.MaxDepth)
	}
	if c.Branches.Parallelism < 0 {
		return fmt.Errorf("branches.parallelism must be >= 0, got %d", c.Branches.Parallelism)
	}
	if c.Branches.Language != "" {
		if _, err := language.Parse(c.Branches.Language); err != nil {
			return fmt.Errorf("branches.language: %w", err)
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
