package hex

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RunStatus is the current status of a project run
type RunStatus string

const (
	StatusPending                RunStatus = "PENDING"
	StatusRunning                RunStatus = "RUNNING"
	StatusErrored                RunStatus = "ERRORED"
	StatusCompleted              RunStatus = "COMPLETED"
	StatusKilled                 RunStatus = "KILLED"
	StatusUnableToAllocateKernel RunStatus = "UNABLE_TO_ALLOCATE_KERNEL"
)

// RunStatuses returns every status the API documents
func RunStatuses() []RunStatus {
	return []RunStatus{
		StatusPending,
		StatusRunning,
		StatusErrored,
		StatusCompleted,
		StatusKilled,
		StatusUnableToAllocateKernel,
	}
}

// IsKnown reports whether s is one of the documented statuses
func (s RunStatus) IsKnown() bool {
	for _, known := range RunStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the run will not transition any further.
// Only PENDING and RUNNING are non-terminal; unknown statuses count as
// terminal.
func (s RunStatus) IsTerminal() bool {
	return s != StatusPending && s != StatusRunning
}

// ParseRunStatus parses a status name case-insensitively
func ParseRunStatus(s string) (RunStatus, error) {
	status := RunStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsKnown() {
		names := make([]string, 0, len(RunStatuses()))
		for _, known := range RunStatuses() {
			names = append(names, string(known))
		}
		return "", fmt.Errorf("%w: unknown run status %q (want one of %s)", ErrInvalidArgument, s, strings.Join(names, ", "))
	}
	return status, nil
}

// RunProjectRequest is the body of a run trigger. UpdateCache cannot be
// combined with InputParams; the API rejects that combination.
type RunProjectRequest struct {
	DryRun      bool           `json:"dryRun"`
	InputParams map[string]any `json:"inputParams"`
	UpdateCache bool           `json:"updateCache"`
}

// ProjectRunResponse is returned when a run is triggered
type ProjectRunResponse struct {
	ProjectID    string `json:"projectId"`
	RunID        string `json:"runId"`
	RunStatusURL string `json:"runStatusUrl"`
	RunURL       string `json:"runUrl"`
	TraceID      string `json:"traceId"`
}

func (p *ProjectRunResponse) UnmarshalJSON(data []byte) error {
	type payload ProjectRunResponse
	return decodeRequired(data, (*payload)(p), "projectId", "runId", "runStatusUrl", "runUrl", "traceId")
}

// ProjectStatusResponse describes the state of one run
type ProjectStatusResponse struct {
	ProjectID string     `json:"projectId"`
	RunID     string     `json:"runId"`
	Status    RunStatus  `json:"status"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	// ElapsedTime is in milliseconds
	ElapsedTime float64 `json:"elapsedTime"`
	RunURL      string  `json:"runUrl"`
	TraceID     string  `json:"traceId"`
}

func (p *ProjectStatusResponse) UnmarshalJSON(data []byte) error {
	type payload ProjectStatusResponse
	return decodeRequired(data, (*payload)(p), "projectId", "runId", "status", "runUrl", "traceId")
}

// Elapsed returns ElapsedTime as a duration
func (p *ProjectStatusResponse) Elapsed() time.Duration {
	return time.Duration(p.ElapsedTime * float64(time.Millisecond))
}

// ProjectRunsResponse is one page of a project's API-triggered runs
type ProjectRunsResponse struct {
	Runs         []ProjectStatusResponse `json:"runs"`
	NextPage     *string                 `json:"nextPage"`
	PreviousPage *string                 `json:"previousPage"`
	TraceID      string                  `json:"traceId"`
}

func (p *ProjectRunsResponse) UnmarshalJSON(data []byte) error {
	type payload ProjectRunsResponse
	return decodeRequired(data, (*payload)(p), "runs", "traceId")
}

// ListRunsOptions filters and paginates GetProjectRuns. Nil fields are not
// sent.
type ListRunsOptions struct {
	// Limit is the page size, 1 to 100
	Limit *int
	// Offset is the number of runs to skip, at least 0
	Offset *int
	// Status restricts results to runs in this status when set
	Status RunStatus
}

func (o ListRunsOptions) params() (map[string]any, error) {
	if o.Limit != nil && (*o.Limit < 1 || *o.Limit > 100) {
		return nil, fmt.Errorf("%w: limit must be between 1 and 100, got: %d", ErrInvalidArgument, *o.Limit)
	}
	if o.Offset != nil && *o.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must be at least 0, got: %d", ErrInvalidArgument, *o.Offset)
	}

	var status any
	if o.Status != "" {
		if !o.Status.IsKnown() {
			return nil, fmt.Errorf("%w: unknown status filter %q", ErrInvalidArgument, o.Status)
		}
		status = string(o.Status)
	}

	return map[string]any{
		"limit":        o.Limit,
		"offset":       o.Offset,
		"statusFilter": status,
	}, nil
}

// decodeRequired decodes data into v after checking that every required key
// is present and not null. Unknown keys are ignored.
func decodeRequired(data []byte, v any, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var missing []string
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required field(s): %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	return json.Unmarshal(data, v)
}
