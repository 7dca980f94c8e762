package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/hexflow/internal/hex"
)

func newRunsCommand(a *app) *cobra.Command {
	var (
		limit  int
		offset int
		status string
	)

	cmd := &cobra.Command{
		Use:   "runs <project-id>",
		Short: "List the API-triggered runs of a project",
		Long: `List the API-triggered runs of a project, one page at a time.

Examples:
  hexflow runs <project-id>
  hexflow runs <project-id> --status ERRORED --limit 10 --offset 20`,
		Args: cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			var opts hex.ListRunsOptions
			if cmd.Flags().Changed("limit") {
				opts.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				opts.Offset = &offset
			}
			if status != "" {
				parsed, err := hex.ParseRunStatus(status)
				if err != nil {
					return err
				}
				opts.Status = parsed
			}

			api, err := a.client()
			if err != nil {
				return err
			}
			page, err := api.GetProjectRuns(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return a.printer.Runs(a.format, page)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Number of runs per page, 1 to 100")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of runs to skip")
	cmd.Flags().StringVar(&status, "status", "", "Only list runs in this status")

	return cmd
}
