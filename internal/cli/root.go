package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Execute runs the CLI. SIGINT and SIGTERM cancel the command's context, which
// stops any wait at the next poll boundary.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithDependencies(NewRealDependencies())
}

// NewRootCommandWithDependencies creates the root command with injected
// dependencies
func NewRootCommandWithDependencies(deps *Dependencies) *cobra.Command {
	var showVersion bool
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:   "hexflow",
		Short: "hexflow - trigger and monitor Hex project runs",
		Long: `hexflow - trigger and monitor Hex project runs

hexflow calls the Hex project run API: it triggers published projects,
reports run status, cancels and lists runs, and waits for runs to finish.

Credentials come from --token, then the --credentials block in the
credentials file, then the HEX_TOKEN environment variable.

Examples:
  hexflow run 5a8591dd-4039-49df-9202-96385ba3eff8 --wait
  hexflow run <project-id> --input region=emea --input threshold=3
  hexflow status <project-id> <run-id> --output json
  hexflow runs <project-id> --status ERRORED --limit 10
  hexflow credentials save prod --domain acme.hex.tech --token $HEX_TOKEN`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "hexflow version "+version)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.domain, "domain", "", "Hex domain (default from HEX_DOMAIN or app.hex.tech)")
	flags.StringVar(&a.opts.token, "token", "", "Hex API token (default from the credentials block or HEX_TOKEN)")
	flags.StringVar(&a.opts.block, "credentials", "", "Name of the credentials block to use (default from HEX_CREDENTIALS_BLOCK)")
	flags.StringVar(&a.opts.credentialsFile, "credentials-file", "", "Credentials file (default from HEX_CREDENTIALS_FILE or ~/.hexflow/credentials.yaml)")
	flags.StringVarP(&a.opts.output, "output", "o", "text", "Output format: text or json")
	flags.StringVar(&a.opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the command ends")

	cmd.AddCommand(
		newRunCommand(a),
		newStatusCommand(a),
		newCancelCommand(a),
		newRunsCommand(a),
		newWaitCommand(a),
		newCredentialsCommand(a),
	)

	return cmd
}
