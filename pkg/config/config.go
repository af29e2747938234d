// Package config holds the run configuration for the lpa command: a YAML
// file, environment overrides and command-line flags, validated together.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-lpa/pkg/algorithms"
	"github.com/dd0wney/cluso-lpa/pkg/edgelist"
	"github.com/dd0wney/cluso-lpa/pkg/logging"
	"github.com/dd0wney/cluso-lpa/pkg/resource"
	"github.com/dd0wney/cluso-lpa/pkg/validation"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel   = "LOG_LEVEL"
	EnvRoundLimit = "LPA_ROUND_LIMIT"
	EnvWorkers    = "LPA_WORKERS"
)

// MaxWorkers bounds the configured worker count.
const MaxWorkers = 4096

// ErrInvalidEnv is returned when an environment override cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment override")

// Config is the full configuration of one run.
type Config struct {
	Input     string             `yaml:"input" validate:"required"`
	Output    string             `yaml:"output"`
	Delimiter edgelist.Delimiter `yaml:"delimiter"`
	Header    bool               `yaml:"header"`
	Strict    bool               `yaml:"strict"`
	LogLevel  string             `yaml:"log_level" validate:"log_level"`

	Engine   EngineConfig       `yaml:"engine"`
	Report   ReportConfig       `yaml:"report"`
	Metrics  MetricsConfig      `yaml:"metrics"`
	Progress ProgressConfig     `yaml:"progress"`
	S3       resource.S3Options `yaml:"s3"`
}

// EngineConfig tunes the propagation engine.
type EngineConfig struct {
	RoundLimit int    `yaml:"round_limit" validate:"gte=0"`
	Workers    int    `yaml:"workers" validate:"gte=0"`
	ChunkSize  int    `yaml:"chunk_size" validate:"gte=0"`
	Seed       uint64 `yaml:"seed"`
}

// ReportConfig controls the summary printed after a run.
type ReportConfig struct {
	Top      int  `yaml:"top" validate:"gte=0,lte=1000"`
	Baseline bool `yaml:"baseline"`
}

// MetricsConfig selects where metrics are exposed.
type MetricsConfig struct {
	Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
	Textfile string `yaml:"textfile"`
}

// ProgressConfig selects where round progress is published.
type ProgressConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Delimiter: edgelist.Whitespace,
		Header:    true,
		LogLevel:  "info",
		Engine: EngineConfig{
			RoundLimit: algorithms.DefaultMaxRounds,
			ChunkSize:  algorithms.DefaultChunkSize,
		},
		Report: ReportConfig{Top: 10},
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if err := envInt(EnvRoundLimit, &c.Engine.RoundLimit); err != nil {
		return err
	}
	return envInt(EnvWorkers, &c.Engine.Workers)
}

func envInt(key string, dst *int) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, value)
	}
	*dst = n
	return nil
}

// Validate checks the struct tags and the rules that span fields, and
// reports every problem found.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config")
	cv.Merge(validation.Struct(c)).
		RangeInt("Engine.Workers", c.Engine.Workers, 0, MaxWorkers).
		When(c.Progress.Addr != "", func(v *validation.ConfigValidator) {
			v.Custom("Progress.Addr", func() error {
				if !strings.Contains(c.Progress.Addr, "://") {
					return fmt.Errorf("%q needs a transport scheme such as tcp://", c.Progress.Addr)
				}
				return nil
			})
		}).
		When(c.S3.AccessKeyID != "", func(v *validation.ConfigValidator) {
			v.Required("S3.SecretAccessKey", c.S3.SecretAccessKey)
		}).
		Custom("Delimiter", func() error {
			switch c.Delimiter {
			case 0, edgelist.Whitespace, edgelist.Tab, edgelist.Comma:
				return nil
			}
			return fmt.Errorf("%w: %q", edgelist.ErrUnknownDelimiter, rune(c.Delimiter))
		})
	return cv.Validate()
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// PropagationOptions maps the engine section onto engine options.
func (c *Config) PropagationOptions(logger logging.Logger) algorithms.PropagationOptions {
	return algorithms.PropagationOptions{
		MaxRounds: c.Engine.RoundLimit,
		Workers:   c.Engine.Workers,
		ChunkSize: c.Engine.ChunkSize,
		Seed:      c.Engine.Seed,
		Logger:    logger,
	}
}

// LoadOptions maps the input settings onto edge list load options.
func (c *Config) LoadOptions(logger logging.Logger) edgelist.LoadOptions {
	return edgelist.LoadOptions{
		Delimiter: c.Delimiter,
		Header:    c.Header,
		Strict:    c.Strict,
		Logger:    logger,
	}
}
