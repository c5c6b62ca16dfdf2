package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the replay engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay step execution.
type Observer interface {
	// OnSessionStart is called once when a confirmed session begins
	// running, after the countdown and before the first step.
	OnSessionStart(ctx context.Context, sum *Summary)

	// OnSessionEnd is called when the session reaches a terminal state,
	// with the final summary. err is nil for completed sessions,
	// ErrCancelled for cancelled ones, and the fatal step error for
	// aborted ones.
	OnSessionEnd(ctx context.Context, sum *Summary, err error)

	// OnStepStart is called before each attempt of a step.
	// attempt is 1-based and includes the first attempt.
	OnStepStart(ctx context.Context, sum *Summary, step Step, attempt int)

	// OnStepEnd is called after a step finalizes, for successes and
	// failures alike (res.Status tells them apart).
	OnStepEnd(ctx context.Context, sum *Summary, step Step, res StepResult, d time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnSessionStart(ctx context.Context, sum *Summary)          {}
func (NoopObserver) OnSessionEnd(ctx context.Context, sum *Summary, err error) {}
func (NoopObserver) OnStepStart(ctx context.Context, sum *Summary, step Step, attempt int) {
}
func (NoopObserver) OnStepEnd(ctx context.Context, sum *Summary, step Step, res StepResult, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnSessionStart(ctx context.Context, sum *Summary) {
	for _, o := range c.observers {
		o.OnSessionStart(ctx, sum)
	}
}

func (c *CompositeObserver) OnSessionEnd(ctx context.Context, sum *Summary, err error) {
	for _, o := range c.observers {
		o.OnSessionEnd(ctx, sum, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, sum *Summary, step Step, attempt int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, sum, step, attempt)
	}
}

func (c *CompositeObserver) OnStepEnd(ctx context.Context, sum *Summary, step Step, res StepResult, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepEnd(ctx, sum, step, res, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs session / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnSessionStart(ctx context.Context, sum *Summary) {
	o.Logger.InfoContext(ctx, "session_start",
		slog.String("workflow", sum.Workflow),
		slog.String("session_id", sum.ID),
	)
}

func (o *LoggingObserver) OnSessionEnd(ctx context.Context, sum *Summary, err error) {
	level := slog.LevelInfo
	if sum.Status == SessionAborted {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "session_end",
		slog.String("workflow", sum.Workflow),
		slog.String("session_id", sum.ID),
		slog.String("status", string(sum.Status)),
		slog.Int("succeeded", sum.Succeeded()),
		slog.Int("failed", sum.Failed()),
		slog.Int("skipped", sum.Skipped()),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, sum *Summary, step Step, attempt int) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("workflow", sum.Workflow),
		slog.String("session_id", sum.ID),
		slog.Int("step", step.ID),
		slog.String("action", string(step.Action)),
		slog.Int("attempt", attempt),
	)
}

func (o *LoggingObserver) OnStepEnd(ctx context.Context, sum *Summary, step Step, res StepResult, d time.Duration) {
	level := slog.LevelDebug
	if res.Status == StepFailed {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "step_end",
		slog.String("workflow", sum.Workflow),
		slog.String("session_id", sum.ID),
		slog.Int("step", step.ID),
		slog.String("action", string(step.Action)),
		slog.String("status", string(res.Status)),
		slog.Int("attempts", res.Attempts),
		slog.Duration("duration", d),
		slog.String("reason", res.Reason),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	sessionsStarted   atomic.Int64
	sessionsCompleted atomic.Int64
	sessionsCancelled atomic.Int64
	sessionsAborted   atomic.Int64

	stepsSucceeded    atomic.Int64
	stepsFailed       atomic.Int64
	retriesSpent      atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsCancelled int64
	SessionsAborted   int64

	StepsSucceeded  int64
	StepsFailed     int64
	RetriesSpent    int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnSessionStart(ctx context.Context, sum *Summary) {
	m.sessionsStarted.Add(1)
}

func (m *BasicMetrics) OnSessionEnd(ctx context.Context, sum *Summary, err error) {
	switch sum.Status {
	case SessionCompleted:
		m.sessionsCompleted.Add(1)
	case SessionCancelled:
		m.sessionsCancelled.Add(1)
	case SessionAborted:
		m.sessionsAborted.Add(1)
	}
}

func (m *BasicMetrics) OnStepEnd(ctx context.Context, sum *Summary, step Step, res StepResult, d time.Duration) {
	switch res.Status {
	case StepSucceeded:
		m.stepsSucceeded.Add(1)
		// Only successful steps feed the average duration.
		m.totalStepDuration.Add(d.Nanoseconds())
	case StepFailed:
		m.stepsFailed.Add(1)
	}
	if res.Attempts > 1 {
		m.retriesSpent.Add(int64(res.Attempts - 1))
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	steps := m.stepsSucceeded.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		SessionsStarted:   m.sessionsStarted.Load(),
		SessionsCompleted: m.sessionsCompleted.Load(),
		SessionsCancelled: m.sessionsCancelled.Load(),
		SessionsAborted:   m.sessionsAborted.Load(),
		StepsSucceeded:    steps,
		StepsFailed:       m.stepsFailed.Load(),
		RetriesSpent:      m.retriesSpent.Load(),
		AvgStepDuration:   avg,
	}
}
