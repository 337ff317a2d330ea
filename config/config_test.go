package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/brunokim/reason/solver"
)

func writeFile(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reason.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REASON_SOLVER", "")
	t.Setenv("REASON_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("REASON_SOLVER", "")
	t.Setenv("REASON_LOG_LEVEL", "")
	path := writeFile(t, `
solver:
  style: backward
machine:
  iter_limit: 5000
  trace_file: trace.jsonl
logging:
  level: debug
  development: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	want := &Config{
		Solver:  SolverConfig{Style: "backward", MaxDepth: 1000},
		Machine: MachineConfig{IterLimit: 5000, TraceFile: "trace.jsonl"},
		Logging: LoggingConfig{Level: "debug", Development: true},
	}
	assert.Equal(t, want, cfg)

	style, opts, err := cfg.SolverOptions()
	require.NoError(t, err)
	assert.Equal(t, solver.BackwardChaining, style)
	assert.Len(t, opts, 2)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("REASON_SOLVER", "")
	t.Setenv("REASON_LOG_LEVEL", "")
	tests := []struct {
		name string
		text string
	}{
		{"malformed", "solver: [style"},
		{"unknown style", "solver:\n  style: sideways\n"},
		{"unknown level", "logging:\n  level: loud\n"},
		{"negative limit", "machine:\n  iter_limit: -1\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeFile(t, test.text))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REASON_SOLVER", "backward")
	t.Setenv("REASON_LOG_LEVEL", "error")
	path := writeFile(t, "solver:\n  style: bytecode\nlogging:\n  level: info\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "backward", cfg.Solver.Style)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.NewLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = cfg.NewLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Logging.Level = "loud"
	_, err = cfg.NewLogger(false)
	assert.Error(t, err)
}
