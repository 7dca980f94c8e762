package logger

import (
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     string // "console" or "json"
	Caller     bool   // Include caller information
	Stacktrace string // Level at which to include stack traces
}

// ConfigFromEnv creates a logger configuration from environment variables.
// HEX_LOG_LEVEL wins over HEX_VERBOSITY when both are set.
func ConfigFromEnv() *Config {
	cfg := &Config{
		Level:      InfoLevel,
		Format:     "console",
		Caller:     false,
		Stacktrace: "panic",
	}

	if levelStr := os.Getenv("HEX_LOG_LEVEL"); levelStr != "" {
		cfg.Level = LevelFromString(levelStr)
	} else if os.Getenv("HEX_VERBOSITY") == "debug" {
		cfg.Level = DebugLevel
	}

	if format := os.Getenv("HEX_LOG_FORMAT"); format != "" {
		cfg.Format = strings.ToLower(format)
	}

	cfg.Caller = os.Getenv("HEX_LOG_CALLER") == "true"

	if stacktrace := os.Getenv("HEX_LOG_STACKTRACE"); stacktrace != "" {
		cfg.Stacktrace = strings.ToLower(stacktrace)
	}

	return cfg
}

// IsDevelopment returns true if the logger is configured for development mode
func (c *Config) IsDevelopment() bool {
	return c.Format != "json"
}
