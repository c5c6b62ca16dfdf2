package api

import "time"

// EventType identifies a replay event.
type EventType string

const (
	EventSessionPreviewed EventType = "session.previewed"
	EventSessionConfirmed EventType = "session.confirmed"
	EventSessionCountdown EventType = "session.countdown"
	EventSessionStarted   EventType = "session.started"
	EventSessionCompleted EventType = "session.completed"
	EventSessionCancelled EventType = "session.cancelled"
	EventSessionAborted   EventType = "session.aborted"

	EventStepStarted   EventType = "step.started"
	EventStepResolved  EventType = "step.resolved"
	EventStepRetrying  EventType = "step.retrying"
	EventStepSucceeded EventType = "step.succeeded"
	EventStepFailed    EventType = "step.failed"
	EventStepSkipped   EventType = "step.skipped"
)

// ReplayEvent is a minimal append-only record of session progress, for the
// live event stream and the session archive. It is intentionally small and
// stable; richer detail belongs in StepResult.
type ReplayEvent struct {
	SessionID string
	At        time.Time
	Seq       int
	Type      EventType

	// Optional context.
	Workflow string
	StepID   int
	Attempt  int

	// Small, human-oriented details (resolved tier and point, error
	// strings, countdown length). Keep this low-volume.
	Detail string
}
