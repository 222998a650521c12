package config

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LogLevelEnv is consulted when the config carries no level.
const LogLevelEnv = "INTHUNTER_LOG_LEVEL"

// NewLogger builds the root logger. Logs go to stderr so report output on
// stdout stays clean.
func NewLogger(cfg *Config, name string) hclog.Logger {
	var level hclog.Level

	if cfg != nil && cfg.Logger.Level != "" {
		level = getLogLevel(cfg.Logger.Level)
	} else {
		level = getLogLevel(os.Getenv(LogLevelEnv))
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      os.Stderr,
		Level:       level,
	})
}

func getLogLevel(levelStr string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Info
	}
}
