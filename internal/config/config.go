// Package config provides configuration management for the hexflow CLI.
// It loads configuration from environment variables with sensible defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Verbosity represents the output verbosity level
type Verbosity string

const (
	// VerbosityNormal shows only essential output
	VerbosityNormal Verbosity = "normal"
	// VerbosityVerbose includes poll progress and timing
	VerbosityVerbose Verbosity = "verbose"
	// VerbosityDebug provides full debug logging, including every request
	VerbosityDebug Verbosity = "debug"
)

// DefaultDomain is the Hex domain used when none is configured
const DefaultDomain = "app.hex.tech"

// WaitConfig holds settings for the poll-until-terminal loop
type WaitConfig struct {
	// MaxWait is the total time budget for a run to reach a terminal status
	MaxWait time.Duration `env:"HEX_MAX_WAIT,default=15m"`

	// PollFrequency is the delay between two status polls
	PollFrequency time.Duration `env:"HEX_POLL_FREQUENCY,default=10s"`

	// Concurrency bounds how many runs are waited on at once
	Concurrency int `env:"HEX_CONCURRENCY,default=4"`
}

// Config holds all configuration for the hexflow CLI
type Config struct {
	// Domain is the Hex domain API requests are made against
	Domain string `env:"HEX_DOMAIN,default=app.hex.tech"`

	// Token is the Hex API token. Never log it.
	Token string `env:"HEX_TOKEN"`

	// CredentialsFile is the YAML file holding named credential blocks
	CredentialsFile string `env:"HEX_CREDENTIALS_FILE"`

	// CredentialsBlock names the block to load from CredentialsFile
	CredentialsBlock string `env:"HEX_CREDENTIALS_BLOCK"`

	// Verbosity controls output level
	Verbosity Verbosity `env:"HEX_VERBOSITY,default=normal"`

	// RequestTimeout bounds a single HTTP call to the API
	RequestTimeout time.Duration `env:"HEX_REQUEST_TIMEOUT,default=30s"`

	// OTLPEndpoint enables trace export when set
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Wait holds poll loop configuration
	Wait WaitConfig
}

// New creates a new Config instance from environment variables
func New() (*Config, error) {
	return Load(context.Background(), envconfig.OsLookuper())
}

// Load creates a Config from the given lookuper and validates it
func Load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.CredentialsFile == "" {
		path, err := DefaultCredentialsFile()
		if err != nil {
			return nil, err
		}
		cfg.CredentialsFile = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	switch c.Verbosity {
	case VerbosityNormal, VerbosityVerbose, VerbosityDebug:
	default:
		return fmt.Errorf("HEX_VERBOSITY must be one of: normal, verbose, debug; got: %s", c.Verbosity)
	}

	if c.Domain == "" {
		return fmt.Errorf("HEX_DOMAIN cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("HEX_REQUEST_TIMEOUT must be positive, got: %s", c.RequestTimeout)
	}
	if c.Wait.MaxWait <= 0 {
		return fmt.Errorf("HEX_MAX_WAIT must be positive, got: %s", c.Wait.MaxWait)
	}
	if c.Wait.PollFrequency <= 0 {
		return fmt.Errorf("HEX_POLL_FREQUENCY must be positive, got: %s", c.Wait.PollFrequency)
	}
	if c.Wait.Concurrency < 1 {
		return fmt.Errorf("HEX_CONCURRENCY must be at least 1, got: %d", c.Wait.Concurrency)
	}
	return nil
}

// IsVerbose returns true if verbosity is verbose or debug
func (c *Config) IsVerbose() bool {
	return c.Verbosity == VerbosityVerbose || c.Verbosity == VerbosityDebug
}

// IsDebug returns true if verbosity is debug
func (c *Config) IsDebug() bool {
	return c.Verbosity == VerbosityDebug
}

// DefaultCredentialsFile returns ~/.hexflow/credentials.yaml
func DefaultCredentialsFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".hexflow", "credentials.yaml"), nil
}
