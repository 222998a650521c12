package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inthunter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
scan:
  workers: 4
  detectors: [JdbcTemplateInt, PreparedStatement]
report:
  format: json
watch:
  debounce: 300ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, []string{"JdbcTemplateInt", "PreparedStatement"}, cfg.Scan.Detectors)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logger:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Scan.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")

	_, err = Load(writeConfig(t, "scan:\n  wrokers: 2\n"))
	assert.ErrorContains(t, err, "wrokers")
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNewLogger_Level(t *testing.T) {
	t.Setenv(LogLevelEnv, "trace")
	assert.Equal(t, hclog.Trace, NewLogger(nil, "test").GetLevel())

	cfg := Default()
	cfg.Logger.Level = "error"
	assert.Equal(t, hclog.Error, NewLogger(cfg, "test").GetLevel())

	t.Setenv(LogLevelEnv, "")
	assert.Equal(t, hclog.Info, NewLogger(Default(), "test").GetLevel())
}
