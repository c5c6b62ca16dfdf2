package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/petrijr/reenact/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// WorkflowStore, SessionStore and EventStore backed by maps.
type InMemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]api.Workflow
	sessions  map[string]*api.Summary
	events    map[string][]api.ReplayEvent
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		workflows: make(map[string]api.Workflow),
		sessions:  make(map[string]*api.Summary),
		events:    make(map[string][]api.ReplayEvent),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ WorkflowStore = (*InMemoryStore)(nil)

var _ SessionStore = (*InMemoryStore)(nil)

var _ EventStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveWorkflow(wf api.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[wf.Name] = wf
	return nil
}

func (s *InMemoryStore) GetWorkflow(name string) (api.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[name]
	if !ok {
		return api.Workflow{}, ErrWorkflowNotFound
	}

	return wf, nil
}

func (s *InMemoryStore) ListWorkflows() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.workflows))
	for name := range s.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *InMemoryStore) SaveSession(sum *api.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sum.ID] = snapshotSummary(sum)
	return nil
}

func (s *InMemoryStore) UpdateSession(sum *api.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sum.ID]; !ok {
		return ErrSessionNotFound
	}

	s.sessions[sum.ID] = snapshotSummary(sum)
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*api.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return snapshotSummary(sum), nil
}

func (s *InMemoryStore) ListSessions(filter api.SessionFilter) ([]*api.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.Summary

	for _, sum := range s.sessions {
		if filter.Workflow != "" && sum.Workflow != filter.Workflow {
			continue
		}
		if filter.Status != "" && sum.Status != filter.Status {
			continue
		}
		result = append(result, snapshotSummary(sum))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}

func (s *InMemoryStore) AppendEvent(ctx context.Context, ev api.ReplayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.SessionID] = append(s.events[ev.SessionID], ev)
	return nil
}

func (s *InMemoryStore) ListEvents(ctx context.Context, sessionID string) ([]api.ReplayEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[sessionID]
	out := make([]api.ReplayEvent, len(evs))
	copy(out, evs)
	return out, nil
}

// snapshotSummary copies a summary so live sessions and store readers
// never share the Results slice.
func snapshotSummary(sum *api.Summary) *api.Summary {
	cp := *sum
	cp.Results = make([]api.StepResult, len(sum.Results))
	copy(cp.Results, sum.Results)
	return &cp
}
