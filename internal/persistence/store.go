package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/reenact/pkg/api"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrSessionNotFound is returned when a session summary is not found.
	ErrSessionNotFound = errors.New("session not found")
)

// WorkflowStore handles storage of workflows.
type WorkflowStore interface {
	SaveWorkflow(wf api.Workflow) error
	GetWorkflow(name string) (api.Workflow, error)
	// ListWorkflows returns all workflow names, sorted.
	ListWorkflows() ([]string, error)
}

// SessionStore handles storage of session summaries. The engine saves a
// summary when a run starts and updates it after every step, so the
// archive always holds the latest partial record.
type SessionStore interface {
	SaveSession(sum *api.Summary) error
	UpdateSession(sum *api.Summary) error
	GetSession(id string) (*api.Summary, error)
	ListSessions(filter api.SessionFilter) ([]*api.Summary, error)
}

// EventStore is an append-only history store for replay events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.ReplayEvent) error
	ListEvents(ctx context.Context, sessionID string) ([]api.ReplayEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.ReplayEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, sessionID string) ([]api.ReplayEvent, error) {
	return nil, nil
}

// Persistence bundles the store interfaces so the engine can depend on a
// single abstraction.
type Persistence struct {
	Workflows WorkflowStore
	Sessions  SessionStore
	Events    EventStore
}
