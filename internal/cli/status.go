package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/hexflow/internal/output"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id> <run-id>",
		Short: "Show the status of a project run",
		Args:  cobra.ExactArgs(2),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			api, err := a.client()
			if err != nil {
				return err
			}
			status, err := api.GetRunStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return a.printer.Status(a.format, status)
		}),
	}
}

func newCancelCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <project-id> <run-id>",
		Short: "Cancel a project run",
		Args:  cobra.ExactArgs(2),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			api, err := a.client()
			if err != nil {
				return err
			}
			if err := api.CancelRun(ctx, args[0], args[1]); err != nil {
				return err
			}

			if a.format == output.FormatJSON {
				return a.printer.JSON(map[string]any{
					"projectId": args[0],
					"runId":     args[1],
					"cancelled": true,
				})
			}
			a.printer.Success("Cancelled project %s run %s", args[0], args[1])
			return nil
		}),
	}
}
