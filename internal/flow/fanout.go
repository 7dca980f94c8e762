package flow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Backland-Labs/hexflow/internal/hex"
)

// Result is the outcome of one run in a fan-out
type Result struct {
	ProjectID string
	// RunID is empty when the trigger itself failed
	RunID  string
	Status *hex.ProjectStatusResponse
	Err    error
}

// TriggerAndWaitAll triggers every project and waits for all runs, with at
// most concurrency waits in flight. Runs are independent: one failure does
// not stop the others. Results follow the order of projectIDs and the
// returned error joins every failure.
func (w *Waiter) TriggerAndWaitAll(ctx context.Context, projectIDs []string, req hex.RunProjectRequest, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got: %d", hex.ErrInvalidArgument, concurrency)
	}

	results := make([]Result, len(projectIDs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, projectID := range projectIDs {
		results[i].ProjectID = projectID
		g.Go(func() error {
			results[i] = w.triggerOne(ctx, projectID, req)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

func (w *Waiter) triggerOne(ctx context.Context, projectID string, req hex.RunProjectRequest) Result {
	result := Result{ProjectID: projectID}
	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("project %s not triggered: %w", projectID, err)
		return result
	}

	run, err := w.api.RunProject(ctx, projectID, req)
	if err != nil {
		result.Err = err
		return result
	}
	result.RunID = run.RunID

	result.Status, result.Err = w.WaitForCompletion(ctx, run.ProjectID, run.RunID)
	return result
}
