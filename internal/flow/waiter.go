// Package flow triggers Hex project runs and waits for them to reach a
// terminal status.
//
// The wait loop counts elapsed time in poll ticks rather than wall clock: it
// polls while elapsed <= MaxWait and adds PollFrequency after every sleep, so
// a run that finishes on the last allowed tick still counts. Cancellation of
// the caller's context is observed between polls; a status request already in
// flight runs to completion.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Backland-Labs/hexflow/internal/hex"
	"github.com/Backland-Labs/hexflow/internal/logger"
	"github.com/Backland-Labs/hexflow/internal/metrics"
	"github.com/Backland-Labs/hexflow/internal/telemetry"
)

const (
	DefaultMaxWait       = 15 * time.Minute
	DefaultPollFrequency = 10 * time.Second
)

// API is the part of the Hex client the waiter needs
type API interface {
	RunProject(ctx context.Context, projectID string, req hex.RunProjectRequest) (*hex.ProjectRunResponse, error)
	GetRunStatus(ctx context.Context, projectID, runID string) (*hex.ProjectStatusResponse, error)
}

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning early with ctx.Err() when ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitOptions bounds the poll loop. Zero values take the defaults.
type WaitOptions struct {
	MaxWait       time.Duration
	PollFrequency time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.MaxWait <= 0 {
		o.MaxWait = DefaultMaxWait
	}
	if o.PollFrequency <= 0 {
		o.PollFrequency = DefaultPollFrequency
	}
	return o
}

// PollFunc is called with every status observed while waiting
type PollFunc func(status *hex.ProjectStatusResponse, elapsed time.Duration)

// Waiter polls runs until they finish. A Waiter holds no per-run state and
// can serve concurrent waits.
type Waiter struct {
	api     API
	opts    WaitOptions
	sleep   SleepFunc
	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	onPoll  PollFunc
	newID   func() string
}

// Option configures a Waiter
type Option func(*Waiter)

// WithWaitOptions sets the time budget and poll frequency
func WithWaitOptions(opts WaitOptions) Option {
	return func(w *Waiter) { w.opts = opts.withDefaults() }
}

// WithSleep replaces the function used between polls
func WithSleep(sleep SleepFunc) Option {
	return func(w *Waiter) {
		if sleep != nil {
			w.sleep = sleep
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(w *Waiter) { w.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Waiter) { w.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(w *Waiter) { w.tracer = t }
}

// WithPollHook registers fn to observe every polled status
func WithPollHook(fn PollFunc) Option {
	return func(w *Waiter) { w.onPoll = fn }
}

// NewWaiter creates a Waiter polling through api
func NewWaiter(api API, opts ...Option) *Waiter {
	w := &Waiter{
		api:   api,
		opts:  WaitOptions{}.withDefaults(),
		sleep: Sleep,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.GetLogger()
	}
	if w.tracer == nil {
		w.tracer = telemetry.Tracer()
	}
	return w
}

// Options returns the effective wait options
func (w *Waiter) Options() WaitOptions {
	return w.opts
}

// TriggerAndWait runs a project and waits for the run to finish. It returns
// the final status payload when the run completes, and a *hex.RunError when
// it ends in any other status or runs out of time.
func (w *Waiter) TriggerAndWait(ctx context.Context, projectID string, req hex.RunProjectRequest) (*hex.ProjectStatusResponse, error) {
	run, err := w.api.RunProject(ctx, projectID, req)
	if err != nil {
		return nil, err
	}
	return w.WaitForCompletion(ctx, run.ProjectID, run.RunID)
}

// WaitForCompletion polls an already triggered run until it reaches a
// terminal status or the wait budget is spent
func (w *Waiter) WaitForCompletion(ctx context.Context, projectID, runID string) (*hex.ProjectStatusResponse, error) {
	invocationID := w.newID()
	log := w.log.WithRun(projectID, runID).WithField("invocation_id", invocationID)

	ctx, span := w.tracer.Start(ctx, "hexflow.wait",
		trace.WithAttributes(
			attribute.String("hex.project_id", projectID),
			attribute.String("hex.run_id", runID),
			attribute.String("hexflow.invocation_id", invocationID),
			attribute.Float64("hexflow.max_wait_seconds", w.opts.MaxWait.Seconds()),
		),
	)
	defer span.End()

	start := time.Now()
	status, err := w.poll(ctx, log, projectID, runID)
	w.metrics.ObserveOutcome(outcome(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Info("Run did not complete")
		return nil, err
	}
	span.SetAttributes(attribute.String("hex.status", string(status.Status)))
	log.Info("Run completed")
	return status, nil
}

func (w *Waiter) poll(ctx context.Context, log *logger.Logger, projectID, runID string) (*hex.ProjectStatusResponse, error) {
	var (
		elapsed time.Duration
		last    *hex.ProjectStatusResponse
	)

	for elapsed <= w.opts.MaxWait {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stopped waiting for project %s run %s: %w", projectID, runID, err)
		}

		status, err := w.api.GetRunStatus(context.WithoutCancel(ctx), projectID, runID)
		w.metrics.ObservePoll()
		if err != nil {
			return nil, err
		}
		last = status

		log.WithFields(map[string]interface{}{
			"status":          string(status.Status),
			"elapsed_seconds": elapsed.Seconds(),
		}).Debug("Polled run status")
		if w.onPoll != nil {
			w.onPoll(status, elapsed)
		}

		if status.Status.IsTerminal() {
			return w.finish(projectID, runID, status)
		}

		if err := w.sleep(ctx, w.opts.PollFrequency); err != nil {
			return nil, fmt.Errorf("stopped waiting for project %s run %s: %w", projectID, runID, err)
		}
		elapsed += w.opts.PollFrequency
	}

	runErr := &hex.RunError{
		Kind:      hex.RunTimedOut,
		ProjectID: projectID,
		RunID:     runID,
		MaxWait:   w.opts.MaxWait,
		Last:      last,
	}
	if last != nil {
		runErr.Status = last.Status
	}
	return nil, runErr
}

func (w *Waiter) finish(projectID, runID string, status *hex.ProjectStatusResponse) (*hex.ProjectStatusResponse, error) {
	kind, failed := hex.ClassifyStatus(status.Status)
	if !failed {
		return status, nil
	}
	return nil, &hex.RunError{
		Kind:      kind,
		ProjectID: projectID,
		RunID:     runID,
		Status:    status.Status,
		MaxWait:   w.opts.MaxWait,
		Last:      status,
	}
}

func outcome(err error) string {
	if err == nil {
		return "completed"
	}
	var runErr *hex.RunError
	if errors.As(err, &runErr) {
		return runErr.Kind.String()
	}
	return "error"
}
