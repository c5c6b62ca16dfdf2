package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/petrijr/reenact/internal/persistence"
	"github.com/petrijr/reenact/internal/vision"
	"github.com/petrijr/reenact/pkg/api"
)

// engineImpl is a simple, synchronous, in-process engine implementation.
type engineImpl struct {
	providers api.Providers
	cfg       api.Config

	workflows persistence.WorkflowStore
	sessions  persistence.SessionStore
	events    persistence.EventStore
	observer  api.Observer

	anchors  *vision.AnchorCache
	resolver *resolver
	executor *executor
	waiter   *waiter
	gate     *runGate
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the helper functions.
type Config struct {
	Providers   api.Providers
	Replay      api.Config
	AnchorDir   string
	Persistence persistence.Persistence
	Observer    api.Observer
}

// NewInMemoryEngine creates an engine with in-memory stores, for tests and
// one-shot CLI invocations.
func NewInMemoryEngine(providers api.Providers) api.Engine {
	mem := persistence.NewInMemoryStore()
	return NewEngineWithConfig(Config{
		Providers: providers,
		Persistence: persistence.Persistence{
			Workflows: mem,
			Sessions:  mem,
			Events:    mem,
		},
	})
}

// NewSQLiteEngine creates an engine that archives sessions and events in
// SQLite. Workflow documents remain in-memory; the document library on
// disk is the source of truth for those.
func NewSQLiteEngine(providers api.Providers, db *sql.DB) (api.Engine, error) {
	sessions, err := persistence.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}

	return NewEngineWithConfig(Config{
		Providers: providers,
		Persistence: persistence.Persistence{
			Workflows: persistence.NewInMemoryStore(),
			Sessions:  sessions,
			Events:    events,
		},
	}), nil
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	replay := cfg.Replay.WithDefaults()

	p := cfg.Persistence
	if p.Workflows == nil || p.Sessions == nil {
		mem := persistence.NewInMemoryStore()
		if p.Workflows == nil {
			p.Workflows = mem
		}
		if p.Sessions == nil {
			p.Sessions = mem
		}
		if p.Events == nil {
			p.Events = mem
		}
	}
	if p.Events == nil {
		p.Events = persistence.NoopEventStore{}
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}

	e := &engineImpl{
		providers: cfg.Providers,
		cfg:       replay,
		workflows: p.Workflows,
		sessions:  p.Sessions,
		events:    p.Events,
		observer:  obs,
		anchors:   vision.NewAnchorCache(cfg.AnchorDir),
		gate:      newRunGate(),
	}

	if cfg.Providers.Screen != nil {
		e.resolver = newResolver(cfg.Providers.Screen, cfg.Providers.Window, e.anchors, replay.AnchorThreshold)
	}
	e.waiter = newWaiter(e.resolver, cfg.Providers, replay)
	e.executor = newExecutor(cfg.Providers.Input, replay)

	return e
}

// Ensure engineImpl implements the interface.
var _ api.Engine = (*engineImpl)(nil)

func (e *engineImpl) RegisterWorkflow(wf api.Workflow) error {
	if err := wf.Validate(); err != nil {
		return err
	}

	// Check for duplicates via the store.
	if existing, err := e.workflows.GetWorkflow(wf.Name); err == nil && existing.Name != "" {
		return fmt.Errorf("workflow already registered: %s", wf.Name)
	} else if err != nil && !errors.Is(err, persistence.ErrWorkflowNotFound) {
		// Unexpected store error.
		return err
	}

	return e.workflows.SaveWorkflow(wf)
}

func (e *engineImpl) Workflow(name string) (api.Workflow, error) {
	wf, err := e.workflows.GetWorkflow(name)
	if err != nil {
		if errors.Is(err, persistence.ErrWorkflowNotFound) {
			return api.Workflow{}, fmt.Errorf("unknown workflow: %s", name)
		}
		return api.Workflow{}, err
	}
	return wf, nil
}

func (e *engineImpl) Workflows() []string {
	names, err := e.workflows.ListWorkflows()
	if err != nil {
		return nil
	}
	return names
}

func (e *engineImpl) NewSession(name string) (api.Session, error) {
	wf, err := e.Workflow(name)
	if err != nil {
		return nil, err
	}
	if err := e.checkProviders(wf); err != nil {
		return nil, err
	}

	return newSession(uuid.NewString(), wf, e.cfg, sessionDeps{
		resolver: e.resolver,
		executor: e.executor,
		waiter:   e.waiter,
		input:    e.providers.Input,
		sessions: e.sessions,
		events:   e.events,
		observer: e.observer,
		gate:     e.gate,
	}), nil
}

func (e *engineImpl) DryRun(ctx context.Context, name string) (*api.PreviewReport, error) {
	wf, err := e.Workflow(name)
	if err != nil {
		return nil, err
	}
	return buildPreview(wf, e.cfg), nil
}

func (e *engineImpl) Session(ctx context.Context, id string) (*api.Summary, error) {
	sum, err := e.sessions.GetSession(id)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, err
	}
	return sum, nil
}

func (e *engineImpl) Sessions(ctx context.Context, filter api.SessionFilter) ([]*api.Summary, error) {
	return e.sessions.ListSessions(filter)
}

func (e *engineImpl) Events(ctx context.Context, sessionID string) ([]api.ReplayEvent, error) {
	return e.events.ListEvents(ctx, sessionID)
}

// checkProviders fails fast when the workflow references a collaborator
// the engine does not have, so the gap surfaces before anything moves.
// Screen and input are always required for a live session; the optional
// providers only when a step actually uses them.
func (e *engineImpl) checkProviders(wf api.Workflow) error {
	needText, needWindow, needProcess := false, false, false
	for _, step := range wf.Steps {
		if post := step.Post; post != nil {
			switch post.Kind {
			case api.CondTextAppears:
				needText = true
			case api.CondWindowTitle:
				needWindow = true
			case api.CondProcessRunning:
				needProcess = true
			}
		}
	}

	var missing []string
	if e.providers.Screen == nil {
		missing = append(missing, "screen")
	}
	if e.providers.Input == nil {
		missing = append(missing, "input")
	}
	if needText && e.providers.Text == nil {
		missing = append(missing, "text recognizer")
	}
	if needWindow && e.providers.Window == nil {
		missing = append(missing, "window info")
	}
	if needProcess && e.providers.Process == nil {
		missing = append(missing, "process info")
	}

	if len(missing) > 0 {
		return fmt.Errorf("workflow %q needs %s: %w", wf.Name, strings.Join(missing, ", "), api.ErrWorkflowRequiresProvider)
	}
	return nil
}
