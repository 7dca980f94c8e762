package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Backland-Labs/hexflow/internal/config"
	"github.com/Backland-Labs/hexflow/internal/credentials"
	"github.com/Backland-Labs/hexflow/internal/flow"
	"github.com/Backland-Labs/hexflow/internal/hex"
	"github.com/Backland-Labs/hexflow/internal/logger"
	"github.com/Backland-Labs/hexflow/internal/metrics"
	"github.com/Backland-Labs/hexflow/internal/output"
	"github.com/Backland-Labs/hexflow/internal/telemetry"
)

// globalOptions holds the persistent flags
type globalOptions struct {
	domain          string
	token           string
	block           string
	credentialsFile string
	output          string
	metricsFile     string
}

// app carries the state shared by all subcommands for one invocation
type app struct {
	deps *Dependencies
	opts globalOptions

	cfg      *config.Config
	format   output.Format
	printer  *output.Printer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	shutdown telemetry.ShutdownFunc
}

// action wraps a subcommand body with setup and teardown
func (a *app) action(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := a.setup(ctx, cmd); err != nil {
			return err
		}
		defer func() {
			if teardownErr := a.teardown(); teardownErr != nil {
				err = errors.Join(err, teardownErr)
			}
		}()

		return fn(ctx, cmd, args)
	}
}

func (a *app) setup(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := a.deps.ConfigLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	logger.InitializeFromConfig(cfg)

	format, err := output.ParseFormat(a.opts.output)
	if err != nil {
		return err
	}
	a.format = format

	a.printer = a.deps.Printer
	if a.printer == nil {
		a.printer = output.NewPrinterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
	}

	a.registry = prometheus.NewRegistry()
	if a.metrics, err = metrics.New(a.registry); err != nil {
		return err
	}

	if a.shutdown, err = telemetry.Init(ctx, telemetry.ServiceName, cfg.OTLPEndpoint); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"command": cmd.CommandPath(),
		"domain":  cfg.Domain,
	}).Debug("Command started")
	return nil
}

func (a *app) teardown() error {
	var errs []error

	if a.opts.metricsFile != "" && a.registry != nil {
		errs = append(errs, metrics.WriteTextfile(a.opts.metricsFile, a.registry))
	}

	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}

	_ = logger.GetLogger().Sync()
	return errors.Join(errs...)
}

// credentials resolves credentials: --token first, then the named block,
// then HEX_TOKEN
func (a *app) credentials() (*credentials.Credentials, error) {
	timeout := credentials.WithTimeout(a.cfg.RequestTimeout)

	domain := a.cfg.Domain
	if a.opts.domain != "" {
		domain = a.opts.domain
	}

	if a.opts.token != "" {
		return credentials.New(domain, a.opts.token, timeout)
	}

	block := a.opts.block
	if block == "" {
		block = a.cfg.CredentialsBlock
	}
	if block != "" {
		store, err := credentials.LoadStore(a.credentialsFile())
		if err != nil {
			return nil, err
		}
		creds, err := store.Get(block, timeout)
		if err != nil {
			return nil, err
		}
		if a.opts.domain != "" {
			return credentials.New(a.opts.domain, creds.Token().Value(), timeout)
		}
		return creds, nil
	}

	creds, err := credentials.New(domain, a.cfg.Token, timeout)
	if errors.Is(err, credentials.ErrMissingToken) {
		return nil, fmt.Errorf("%w: pass --token, --credentials or set HEX_TOKEN", err)
	}
	return creds, err
}

func (a *app) credentialsFile() string {
	if a.opts.credentialsFile != "" {
		return a.opts.credentialsFile
	}
	return a.cfg.CredentialsFile
}

func (a *app) client() (HexAPI, error) {
	creds, err := a.credentials()
	if err != nil {
		return nil, err
	}
	logger.WithField("domain", creds.Domain()).Debug("Resolved credentials")
	return a.deps.NewClient(creds, a.metrics)
}

// waitFlags are the poll loop flags shared by run and wait
type waitFlags struct {
	maxWait       time.Duration
	pollFrequency time.Duration
}

func (w *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&w.maxWait, "max-wait", 0, "Total time to wait for a run to finish (default from HEX_MAX_WAIT or 15m)")
	cmd.Flags().DurationVar(&w.pollFrequency, "poll-frequency", 0, "Time between status polls (default from HEX_POLL_FREQUENCY or 10s)")
}

func (a *app) waitOptions(w waitFlags) (flow.WaitOptions, error) {
	opts := flow.WaitOptions{
		MaxWait:       a.cfg.Wait.MaxWait,
		PollFrequency: a.cfg.Wait.PollFrequency,
	}
	if w.maxWait < 0 || w.pollFrequency < 0 {
		return opts, fmt.Errorf("--max-wait and --poll-frequency must be positive")
	}
	if w.maxWait > 0 {
		opts.MaxWait = w.maxWait
	}
	if w.pollFrequency > 0 {
		opts.PollFrequency = w.pollFrequency
	}
	return opts, nil
}

func (a *app) waiter(api flow.API, opts flow.WaitOptions, extra ...flow.Option) *flow.Waiter {
	base := []flow.Option{
		flow.WithWaitOptions(opts),
		flow.WithSleep(a.deps.Sleep),
		flow.WithLogger(logger.GetLogger()),
		flow.WithMetrics(a.metrics),
		flow.WithTracer(telemetry.Tracer()),
	}
	return flow.NewWaiter(api, append(base, extra...)...)
}

// progress starts a spinner for a single wait when writing text to a
// terminal. The returned stop function is always safe to call.
func (a *app) progress(message string) (flow.Option, func()) {
	if a.format != output.FormatText || !a.printer.Interactive() {
		return flow.WithPollHook(nil), func() {}
	}
	p := a.printer.StartProgress(message)
	hook := flow.WithPollHook(func(status *hex.ProjectStatusResponse, _ time.Duration) {
		p.SetStatus(string(status.Status))
	})
	return hook, p.Stop
}
