package api

import (
	"context"
	"errors"
)

var ErrWorkflowRequiresProvider = errors.New("workflow requires a provider that is not configured")

// Engine is the high-level replay API.
//
// An engine holds a set of registered workflows, the platform providers a
// live session drives, and the session archive. Engines are safe for
// concurrent use, but only one session can be running at a time: there is
// one pointer and one keyboard.
type Engine interface {
	// RegisterWorkflow validates and registers a workflow by name.
	RegisterWorkflow(wf Workflow) error

	// Workflow returns a registered workflow by name.
	Workflow(name string) (Workflow, error)

	// Workflows returns the names of all registered workflows, sorted.
	Workflows() []string

	// NewSession creates a pending session for the named workflow.
	// It fails fast when the workflow references a provider the engine
	// does not have (wrapping ErrWorkflowRequiresProvider), so the gap
	// surfaces before anything moves.
	NewSession(name string) (Session, error)

	// DryRun builds the preview report for a workflow without creating a
	// session. It performs no captures and no injections.
	DryRun(ctx context.Context, name string) (*PreviewReport, error)

	// Session looks up an archived session summary by ID.
	// Returns an error if the session is not found.
	Session(ctx context.Context, id string) (*Summary, error)

	// Sessions returns archived session summaries matching the filter.
	// A zero-valued filter returns all sessions.
	Sessions(ctx context.Context, filter SessionFilter) ([]*Summary, error)

	// Events returns the archived event history of a session in append
	// order.
	Events(ctx context.Context, sessionID string) ([]ReplayEvent, error)
}
