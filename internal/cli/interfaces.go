package cli

import (
	"context"

	"github.com/Backland-Labs/hexflow/internal/config"
	"github.com/Backland-Labs/hexflow/internal/credentials"
	"github.com/Backland-Labs/hexflow/internal/flow"
	"github.com/Backland-Labs/hexflow/internal/hex"
	"github.com/Backland-Labs/hexflow/internal/logger"
	"github.com/Backland-Labs/hexflow/internal/metrics"
	"github.com/Backland-Labs/hexflow/internal/output"
)

// ConfigLoader interface for dependency injection in tests
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// HexAPI is the subset of the Hex client the commands use
type HexAPI interface {
	flow.API
	CancelRun(ctx context.Context, projectID, runID string) error
	GetProjectRuns(ctx context.Context, projectID string, opts hex.ListRunsOptions) (*hex.ProjectRunsResponse, error)
}

// ClientFactory builds an API client for resolved credentials
type ClientFactory func(creds *credentials.Credentials, m *metrics.Metrics) (HexAPI, error)

// Real implementations for production use

// RealConfigLoader implements ConfigLoader using the real config package
type RealConfigLoader struct{}

func (r *RealConfigLoader) Load() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.New()
}

// NewRealClient creates a hex.Client logging through the global logger
func NewRealClient(creds *credentials.Credentials, m *metrics.Metrics) (HexAPI, error) {
	return hex.NewClient(creds,
		hex.WithLogger(logger.GetLogger()),
		hex.WithMetrics(m),
		hex.WithUserAgent("hexflow/"+version),
	)
}

// NewRealDependencies creates production dependencies
func NewRealDependencies() *Dependencies {
	return &Dependencies{
		ConfigLoader: &RealConfigLoader{},
		NewClient:    NewRealClient,
		Sleep:        flow.Sleep,
		Printer:      output.NewPrinter(),
	}
}

// Dependencies holds everything the commands need from the outside world
type Dependencies struct {
	ConfigLoader ConfigLoader
	NewClient    ClientFactory
	Sleep        flow.SleepFunc
	Printer      *output.Printer
}
