package hex

import (
	"context"
	"fmt"
	"net/url"
)

// RunProject triggers a run of the latest published version of a project
func (c *Client) RunProject(ctx context.Context, projectID string, req RunProjectRequest) (*ProjectRunResponse, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidArgument)
	}

	body := map[string]any{
		"dryRun":      req.DryRun,
		"inputParams": req.InputParams,
		"updateCache": req.UpdateCache,
	}
	if req.InputParams == nil {
		body["inputParams"] = nil
	}

	resp, err := c.Execute(ctx, projectPath(projectID, "run"), MethodPost, nil, body)
	if err != nil {
		return nil, err
	}

	var out ProjectRunResponse
	if err := UnpackInto(resp, &out); err != nil {
		return nil, fmt.Errorf("failed to trigger run of project %s: %w", projectID, err)
	}
	return &out, nil
}

// GetRunStatus returns the current status of a run
func (c *Client) GetRunStatus(ctx context.Context, projectID, runID string) (*ProjectStatusResponse, error) {
	path, err := runPath(projectID, runID)
	if err != nil {
		return nil, err
	}

	resp, err := c.Execute(ctx, path, MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}

	var out ProjectStatusResponse
	if err := UnpackInto(resp, &out); err != nil {
		return nil, fmt.Errorf("failed to get status of project %s run %s: %w", projectID, runID, err)
	}
	return &out, nil
}

// CancelRun cancels a run. The response body of a successful cancel is
// discarded.
func (c *Client) CancelRun(ctx context.Context, projectID, runID string) error {
	path, err := runPath(projectID, runID)
	if err != nil {
		return err
	}

	resp, err := c.Execute(ctx, path, MethodDelete, nil, nil)
	if err != nil {
		return err
	}
	if _, err := Unpack(resp); err != nil {
		return fmt.Errorf("failed to cancel project %s run %s: %w", projectID, runID, err)
	}
	return nil
}

// GetProjectRuns returns one page of the API-triggered runs of a project
func (c *Client) GetProjectRuns(ctx context.Context, projectID string, opts ListRunsOptions) (*ProjectRunsResponse, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidArgument)
	}
	params, err := opts.params()
	if err != nil {
		return nil, err
	}

	resp, err := c.Execute(ctx, projectPath(projectID, "runs"), MethodGet, params, nil)
	if err != nil {
		return nil, err
	}

	var out ProjectRunsResponse
	if err := UnpackInto(resp, &out); err != nil {
		return nil, fmt.Errorf("failed to list runs of project %s: %w", projectID, err)
	}
	return &out, nil
}

func projectPath(projectID string, rest ...string) string {
	path := "/project/" + url.PathEscape(projectID)
	for _, segment := range rest {
		path += "/" + segment
	}
	return path
}

func runPath(projectID, runID string) (string, error) {
	if projectID == "" {
		return "", fmt.Errorf("%w: project id is required", ErrInvalidArgument)
	}
	if runID == "" {
		return "", fmt.Errorf("%w: run id is required", ErrInvalidArgument)
	}
	return projectPath(projectID, "run", url.PathEscape(runID)), nil
}
