package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newWaitCommand(a *app) *cobra.Command {
	var f waitFlags

	cmd := &cobra.Command{
		Use:   "wait <project-id> <run-id>",
		Short: "Wait for an already triggered run to finish",
		Long: `Poll a run until it reaches a terminal status. The command fails if
the run ends in any status other than COMPLETED or does not finish within
--max-wait.`,
		Args: cobra.ExactArgs(2),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			opts, err := a.waitOptions(f)
			if err != nil {
				return err
			}
			api, err := a.client()
			if err != nil {
				return err
			}

			hook, stop := a.progress(fmt.Sprintf("Waiting for project %s run %s", args[0], args[1]))
			status, err := a.waiter(api, opts, hook).WaitForCompletion(ctx, args[0], args[1])
			stop()
			if err != nil {
				return err
			}
			return a.printer.Status(a.format, status)
		}),
	}

	f.register(cmd)
	return cmd
}
