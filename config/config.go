// Package config loads the settings of the reason command from a YAML file.
package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/brunokim/reason/solver"
)

// Config holds every setting of the command.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Machine MachineConfig `yaml:"machine"`
	Logging LoggingConfig `yaml:"logging"`
}

// SolverConfig selects how queries are solved.
type SolverConfig struct {
	Style    string `yaml:"style"`     // bytecode, backward, forward
	MaxDepth int    `yaml:"max_depth"` // backward and forward only
}

// MachineConfig configures the bytecode machine.
type MachineConfig struct {
	IterLimit int    `yaml:"iter_limit"` // 0 is unlimited
	TraceFile string `yaml:"trace_file"` // JSON lines, one per instruction
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Solver: SolverConfig{
			Style:    solver.ByteCode.String(),
			MaxDepth: 1000,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads the configuration from a YAML file, over the defaults. A missing file
// is not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if style := os.Getenv("REASON_SOLVER"); style != "" {
		c.Solver.Style = style
	}
	if level := os.Getenv("REASON_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks that names in the configuration are known.
func (c *Config) Validate() error {
	if _, err := solver.ParseStyle(c.Solver.Style); err != nil {
		return fmt.Errorf("solver.style: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Solver.MaxDepth < 0 || c.Machine.IterLimit < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}

// SolverOptions returns the solver style and options, except for the logger and
// the trace writer.
func (c *Config) SolverOptions() (solver.Style, []solver.Option, error) {
	style, err := solver.ParseStyle(c.Solver.Style)
	if err != nil {
		return 0, nil, err
	}
	var opts []solver.Option
	if c.Solver.MaxDepth > 0 {
		opts = append(opts, solver.WithMaxDepth(c.Solver.MaxDepth))
	}
	if c.Machine.IterLimit > 0 {
		opts = append(opts, solver.WithIterLimit(c.Machine.IterLimit))
	}
	return style, opts, nil
}

// NewLogger builds a logger writing to stderr. verbose forces the debug level.
func (c *Config) NewLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
