package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Backland-Labs/hexflow/internal/flow"
	"github.com/Backland-Labs/hexflow/internal/hex"
	"github.com/Backland-Labs/hexflow/internal/output"
)

type runFlags struct {
	inputs      []string
	paramsFile  string
	dryRun      bool
	updateCache bool
	wait        bool
	concurrency int
	waitFlags
}

// newRunCommand creates the command that triggers project runs
func newRunCommand(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <project-id>...",
		Short: "Trigger a run of one or more published projects",
		Long: `Trigger a run of the latest published version of one or more projects.

Input values are parsed as YAML scalars, so numbers and booleans keep their
type. --input values override keys from --params-file. --update-cache cannot
be combined with inputs; the Hex API rejects that combination.

Examples:
  hexflow run <project-id>
  hexflow run <project-id> --input region=emea --input threshold=3 --wait
  hexflow run <project-a> <project-b> --params-file params.yaml --wait --concurrency 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return a.runProjects(ctx, args, f)
		}),
	}

	cmd.Flags().StringArrayVar(&f.inputs, "input", nil, "Input parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&f.paramsFile, "params-file", "", "YAML or JSON file of input parameters")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Validate the run without executing the project")
	cmd.Flags().BoolVar(&f.updateCache, "update-cache", false, "Refresh cached SQL results during the run")
	cmd.Flags().BoolVar(&f.wait, "wait", false, "Wait for the runs to finish")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Maximum runs waited on at once (default from HEX_CONCURRENCY or 4)")
	f.waitFlags.register(cmd)

	return cmd
}

func (a *app) runProjects(ctx context.Context, projectIDs []string, f runFlags) error {
	inputs, err := loadInputs(f.paramsFile, f.inputs)
	if err != nil {
		return err
	}
	req := hex.RunProjectRequest{
		DryRun:      f.dryRun,
		InputParams: inputs,
		UpdateCache: f.updateCache,
	}

	api, err := a.client()
	if err != nil {
		return err
	}

	if !f.wait {
		var errs []error
		for _, projectID := range projectIDs {
			run, err := api.RunProject(ctx, projectID, req)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := a.printer.RunTriggered(a.format, run); err != nil {
				return err
			}
		}
		return errors.Join(errs...)
	}

	opts, err := a.waitOptions(f.waitFlags)
	if err != nil {
		return err
	}
	concurrency := a.cfg.Wait.Concurrency
	if f.concurrency != 0 {
		concurrency = f.concurrency
	}

	var extra []flow.Option
	if len(projectIDs) == 1 {
		hook, stop := a.progress(fmt.Sprintf("Waiting for project %s", projectIDs[0]))
		defer stop()
		extra = append(extra, hook)
	}

	results, err := a.waiter(api, opts, extra...).TriggerAndWaitAll(ctx, projectIDs, req, concurrency)
	if len(results) == 0 {
		return err
	}

	rendered := make([]output.WaitResult, len(results))
	for i, r := range results {
		rendered[i] = output.WaitResult{ProjectID: r.ProjectID, RunID: r.RunID, Status: r.Status}
		if r.Err != nil {
			rendered[i].Error = r.Err.Error()
		}
	}
	if renderErr := a.printer.WaitResults(a.format, rendered); renderErr != nil {
		return renderErr
	}
	return err
}

// loadInputs merges the params file with --input pairs. It returns nil when
// no inputs were given so that no inputParams key is sent.
func loadInputs(paramsFile string, pairs []string) (map[string]any, error) {
	var inputs map[string]any

	if paramsFile != "" {
		data, err := os.ReadFile(paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse params file %s: %w", paramsFile, err)
		}
	}

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --input %q: expected key=value", pair)
		}

		var value any = raw
		if strings.TrimSpace(raw) != "" {
			if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
				value = raw
			}
		}
		if inputs == nil {
			inputs = make(map[string]any)
		}
		inputs[key] = value
	}

	return inputs, nil
}
