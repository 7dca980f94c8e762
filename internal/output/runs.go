package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Backland-Labs/hexflow/internal/hex"
)

// Format selects how results are rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates an --output value
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("output must be one of: text, json; got: %s", s)
}

// JSON writes v as indented JSON
func (p *Printer) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	p.write(p.out, "%s\n", data)
	return nil
}

// RunTriggered renders the response to a run trigger
func (p *Printer) RunTriggered(format Format, run *hex.ProjectRunResponse) error {
	if format == FormatJSON {
		return p.JSON(run)
	}
	p.Success("Triggered project %s run %s", run.ProjectID, run.RunID)
	p.Detail("Run URL:    %s", run.RunURL)
	p.Detail("Status URL: %s", run.RunStatusURL)
	p.Detail("Trace ID:   %s", run.TraceID)
	return nil
}

// Status renders one run status
func (p *Printer) Status(format Format, status *hex.ProjectStatusResponse) error {
	if format == FormatJSON {
		return p.JSON(status)
	}

	line := fmt.Sprintf("Project %s run %s is %s", status.ProjectID, status.RunID, status.Status)
	switch {
	case status.Status == hex.StatusCompleted:
		p.Success("%s", line)
	case !status.Status.IsTerminal():
		p.Info("%s", line)
	default:
		p.Error("%s", line)
	}

	if status.StartTime != nil {
		p.Detail("Started:  %s", status.StartTime.Format(time.RFC3339))
	}
	if status.EndTime != nil {
		p.Detail("Ended:    %s", status.EndTime.Format(time.RFC3339))
	}
	if status.ElapsedTime > 0 {
		p.Detail("Elapsed:  %s", status.Elapsed().Round(time.Millisecond))
	}
	p.Detail("Run URL:  %s", status.RunURL)
	p.Detail("Trace ID: %s", status.TraceID)
	return nil
}

// Runs renders one page of runs as a table
func (p *Printer) Runs(format Format, page *hex.ProjectRunsResponse) error {
	if format == FormatJSON {
		return p.JSON(page)
	}
	if len(page.Runs) == 0 {
		p.Info("No runs found")
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTARTED\tELAPSED")
	for _, run := range page.Runs {
		started := "-"
		if run.StartTime != nil {
			started = run.StartTime.Format(time.RFC3339)
		}
		elapsed := "-"
		if run.ElapsedTime > 0 {
			elapsed = run.Elapsed().Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", run.RunID, run.Status, started, elapsed)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to render runs: %w", err)
	}
	p.Print("%s", b.String())

	if page.NextPage != nil {
		p.Detail("More runs available (next page: %s)", *page.NextPage)
	}
	return nil
}

// WaitResult is the JSON shape of one waited run
type WaitResult struct {
	ProjectID string                     `json:"projectId"`
	RunID     string                     `json:"runId,omitempty"`
	Status    *hex.ProjectStatusResponse `json:"status,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// WaitResults renders the outcome of waiting on one or more runs
func (p *Printer) WaitResults(format Format, results []WaitResult) error {
	if format == FormatJSON {
		return p.JSON(results)
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			p.Error("%s", r.Error)
		case r.Status != nil:
			p.Success("Project %s run %s completed in %s", r.ProjectID, r.RunID, r.Status.Elapsed().Round(time.Millisecond))
			p.Detail("Run URL: %s", r.Status.RunURL)
		}
	}
	return nil
}
