// Package config loads stepwise.yaml, the project configuration read by the
// stepwise command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chriserin/stepwise/pkg/engine"
	"github.com/chriserin/stepwise/pkg/registry"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = "stepwise.yaml"

	EnvFailOnSkipped = "STEPWISE_FAIL_ON_SKIPPED"
	EnvTags          = "STEPWISE_TAGS"
)

// DefaultYAML is written by `stepwise init`.
const DefaultYAML = `# stepwise project configuration

# Directory searched recursively for .feature files.
features: features

# Tag expression selecting scenarios, e.g. "@smoke and not @wip".
tags: ""

# SQLite database holding recorded runs.
database: .stepwise/results.db

# Scenarios run at the same time.
concurrency: 4

# Treat skipped scenarios as failures unless tagged @allow_skipped.
fail_on_skipped: false

# How a step matching several definitions is resolved: reject, first or specific.
ambiguity: reject

# sync or async.
mode: sync
block_timeout: 30s

log:
  level: info
  format: text
`

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config models stepwise.yaml.
type Config struct {
	Features      string        `yaml:"features"`
	Tags          string        `yaml:"tags"`
	Database      string        `yaml:"database"`
	Concurrency   int           `yaml:"concurrency"`
	FailOnSkipped bool          `yaml:"fail_on_skipped"`
	Ambiguity     string        `yaml:"ambiguity"`
	Mode          string        `yaml:"mode"`
	BlockTimeout  time.Duration `yaml:"block_timeout"`
	Log           LogConfig     `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Features:     "features",
		Database:     ".stepwise/results.db",
		Concurrency:  4,
		Ambiguity:    "reject",
		Mode:         "sync",
		BlockTimeout: 30 * time.Second,
		Log:          LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if raw, ok := os.LookupEnv(EnvFailOnSkipped); ok {
		v, ok := ParseBool(raw)
		if !ok {
			return fmt.Errorf("%s: cannot parse %q as a boolean", EnvFailOnSkipped, raw)
		}
		c.FailOnSkipped = v
	}
	if raw, ok := os.LookupEnv(EnvTags); ok {
		c.Tags = raw
	}
	return nil
}

func (c *Config) normalize() {
	c.Features = strings.TrimSpace(c.Features)
	if c.Features == "" {
		c.Features = "features"
	}
	c.Tags = strings.TrimSpace(c.Tags)
	c.Ambiguity = strings.ToLower(strings.TrimSpace(c.Ambiguity))
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
}

// Validate rejects unknown enum values and out of range numbers.
func (c *Config) Validate() error {
	var errs []error
	if _, err := registry.ParsePolicy(c.Ambiguity); err != nil {
		errs = append(errs, fmt.Errorf("ambiguity: %w", err))
	}
	if _, err := engine.ParseMode(c.Mode); err != nil {
		errs = append(errs, fmt.Errorf("mode: %w", err))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency))
	}
	if c.BlockTimeout < 0 {
		errs = append(errs, fmt.Errorf("block_timeout must not be negative"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Policy returns the configured ambiguity policy.
func (c *Config) Policy() registry.AmbiguityPolicy {
	p, _ := registry.ParsePolicy(c.Ambiguity)
	return p
}

// EngineOptions translates the configuration into engine options.
func (c *Config) EngineOptions() []engine.Option {
	mode, _ := engine.ParseMode(c.Mode)
	return []engine.Option{
		engine.WithMode(mode),
		engine.WithFailOnSkipped(c.FailOnSkipped),
		engine.WithBlockTimeout(c.BlockTimeout),
	}
}

// ParseBool accepts 1/0, true/false, yes/no and on/off in lower, upper or
// title case.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes", "on", "ON", "On":
		return true, true
	case "0", "false", "FALSE", "False", "no", "NO", "No", "off", "OFF", "Off":
		return false, true
	default:
		return false, false
	}
}
