package hex

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProject(t *testing.T) {
	client, srv := newFakeClient(t)
	srv.ScriptRun("proj-1", "run-42", "RUNNING", "COMPLETED")

	resp, err := client.RunProject(context.Background(), "proj-1", RunProjectRequest{
		InputParams: map[string]any{"region": "emea", "threshold": 3, "unused": nil},
	})
	require.NoError(t, err)

	assert.Equal(t, "proj-1", resp.ProjectID)
	assert.Equal(t, "run-42", resp.RunID)
	assert.Contains(t, resp.RunStatusURL, "/api/v1/project/proj-1/run/run-42")
	assert.NotEmpty(t, resp.RunURL)
	assert.NotEmpty(t, resp.TraceID)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "/project/proj-1/run", requests[0].Path)
	assert.JSONEq(t, `{"dryRun":false,"updateCache":false,"inputParams":{"region":"emea","threshold":3}}`, string(requests[0].Body))
}

func TestRunProjectOmitsNilInputParams(t *testing.T) {
	client, srv := newFakeClient(t)

	_, err := client.RunProject(context.Background(), "proj-1", RunProjectRequest{DryRun: true, UpdateCache: true})
	require.NoError(t, err)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.JSONEq(t, `{"dryRun":true,"updateCache":true}`, string(requests[0].Body))
}

func TestRunProjectServerRejectsCacheWithInputs(t *testing.T) {
	client, _ := newFakeClient(t)

	_, err := client.RunProject(context.Background(), "proj-1", RunProjectRequest{
		InputParams: map[string]any{"a": 1},
		UpdateCache: true,
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "combination is validated by the server, got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestRunProjectMalformedResponse(t *testing.T) {
	client, srv := newFakeClient(t)
	srv.FailNext(http.MethodPost, "/project/proj-1/run", http.StatusCreated, `{"projectId":"proj-1"}`)

	_, err := client.RunProject(context.Background(), "proj-1", RunProjectRequest{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetRunStatus(t *testing.T) {
	client, srv := newFakeClient(t)
	srv.ScriptRun("proj-1", "run-1", "PENDING", "RUNNING", "COMPLETED")

	var seen []RunStatus
	for i := 0; i < 4; i++ {
		status, err := client.GetRunStatus(context.Background(), "proj-1", "run-1")
		require.NoError(t, err)
		assert.Equal(t, "proj-1", status.ProjectID)
		assert.Equal(t, "run-1", status.RunID)
		seen = append(seen, status.Status)
	}

	assert.Equal(t, []RunStatus{StatusPending, StatusRunning, StatusCompleted, StatusCompleted}, seen)
	assert.Equal(t, 4, srv.Polls("proj-1", "run-1"))
}

func TestGetRunStatusNotFound(t *testing.T) {
	client, _ := newFakeClient(t)

	_, err := client.GetRunStatus(context.Background(), "proj-1", "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Run not found", apiErr.Reason)
}

func TestGetRunStatusUnauthorized(t *testing.T) {
	_, srv := newFakeClient(t)
	client := newTestClient(t, srv.Domain(), "wrong-token")

	_, err := client.GetRunStatus(context.Background(), "proj-1", "run-1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.NotContains(t, err.Error(), "wrong-token")
}

func TestCancelRun(t *testing.T) {
	client, srv := newFakeClient(t)
	srv.ScriptRun("proj-1", "run-1", "RUNNING")

	require.NoError(t, client.CancelRun(context.Background(), "proj-1", "run-1"))
	assert.True(t, srv.Cancelled("proj-1", "run-1"))

	status, err := client.GetRunStatus(context.Background(), "proj-1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, status.Status)

	t.Run("error status still fails", func(t *testing.T) {
		err := client.CancelRun(context.Background(), "proj-1", "unknown")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("successful body is discarded", func(t *testing.T) {
		srv.FailNext(http.MethodDelete, "/project/proj-1/run/run-1", http.StatusOK, "cancelled")
		assert.NoError(t, client.CancelRun(context.Background(), "proj-1", "run-1"))
	})
}

func TestGetProjectRuns(t *testing.T) {
	client, srv := newFakeClient(t)
	srv.ScriptRun("proj-1", "run-1", "COMPLETED")
	srv.ScriptRun("proj-1", "run-2", "ERRORED")
	srv.ScriptRun("proj-1", "run-3", "COMPLETED")

	limit := 1
	page, err := client.GetProjectRuns(context.Background(), "proj-1", ListRunsOptions{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, "run-1", page.Runs[0].RunID)
	require.NotNil(t, page.NextPage)
	assert.Nil(t, page.PreviousPage)

	requests := srv.Requests()
	assert.Equal(t, "1", requests[len(requests)-1].Query.Get("limit"))
	assert.False(t, requests[len(requests)-1].Query.Has("offset"))

	offset := 1
	page, err = client.GetProjectRuns(context.Background(), "proj-1", ListRunsOptions{Offset: &offset, Status: StatusCompleted})
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)
	assert.Equal(t, "run-3", page.Runs[0].RunID)

	requests = srv.Requests()
	assert.Equal(t, "COMPLETED", requests[len(requests)-1].Query.Get("statusFilter"))
}

func TestGetProjectRunsValidatesLocally(t *testing.T) {
	client, srv := newFakeClient(t)

	limit := 101
	_, err := client.GetProjectRuns(context.Background(), "proj-1", ListRunsOptions{Limit: &limit})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, srv.Requests())
}

func TestProjectOperationsRequireIDs(t *testing.T) {
	client, srv := newFakeClient(t)
	ctx := context.Background()

	_, err := client.RunProject(ctx, "", RunProjectRequest{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.GetRunStatus(ctx, "proj-1", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = client.CancelRun(ctx, "", "run-1")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = client.GetProjectRuns(ctx, "", ListRunsOptions{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, srv.Requests())
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	assert.Equal(t, "/project/a%2Fb/run", projectPath("a/b", "run"))

	path, err := runPath("p", "r 1")
	require.NoError(t, err)
	assert.Equal(t, "/project/p/run/r%201", path)
}
