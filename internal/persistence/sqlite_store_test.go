package persistence

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/reenact/pkg/api"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestSessionStore(t *testing.T) *SQLiteSessionStore {
	t.Helper()

	store, err := NewSQLiteSessionStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteSessionStore failed: %v", err)
	}

	return store
}

func TestSQLiteSessionStore_SaveGetUpdate(t *testing.T) {
	store := newTestSessionStore(t)

	started := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	pt := api.Point{X: 412, Y: 388}
	sum := &api.Summary{
		ID:        "sess-1",
		Workflow:  "invoice-entry",
		Status:    api.SessionRunning,
		StartedAt: started,
		Results: []api.StepResult{
			{
				StepID:   1,
				Action:   api.ActionClick,
				Status:   api.StepSucceeded,
				Attempts: 1,
				Tier:     api.TierAnchor,
				Point:    &pt,
			},
		},
	}

	if err := store.SaveSession(sum); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	if got.ID != sum.ID {
		t.Fatalf("expected ID %q, got %q", sum.ID, got.ID)
	}
	if got.Workflow != sum.Workflow {
		t.Fatalf("expected Workflow %q, got %q", sum.Workflow, got.Workflow)
	}
	if got.Status != api.SessionRunning {
		t.Fatalf("expected Status RUNNING, got %q", got.Status)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("expected StartedAt %v, got %v", started, got.StartedAt)
	}
	if !got.FinishedAt.IsZero() {
		t.Fatalf("expected zero FinishedAt, got %v", got.FinishedAt)
	}
	if len(got.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got.Results))
	}
	if got.Results[0].Tier != api.TierAnchor {
		t.Fatalf("expected anchor tier, got %q", got.Results[0].Tier)
	}
	if got.Results[0].Point == nil || *got.Results[0].Point != pt {
		t.Fatalf("unexpected resolved point: %+v", got.Results[0].Point)
	}

	// Finish the session and update.
	sum.Status = api.SessionCompleted
	sum.FinishedAt = started.Add(42 * time.Second)
	sum.Results = append(sum.Results, api.StepResult{
		StepID:   2,
		Action:   api.ActionWait,
		Status:   api.StepSucceeded,
		Attempts: 1,
	})

	if err := store.UpdateSession(sum); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	got2, err := store.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession after update failed: %v", err)
	}

	if got2.Status != api.SessionCompleted {
		t.Fatalf("expected updated Status COMPLETED, got %q", got2.Status)
	}
	if !got2.FinishedAt.Equal(sum.FinishedAt) {
		t.Fatalf("expected FinishedAt %v, got %v", sum.FinishedAt, got2.FinishedAt)
	}
	if len(got2.Results) != 2 {
		t.Fatalf("expected 2 results after update, got %d", len(got2.Results))
	}
}

func TestSQLiteSessionStore_AbortedSessionKeepsError(t *testing.T) {
	store := newTestSessionStore(t)

	sum := &api.Summary{
		ID:       "sess-bad",
		Workflow: "invoice-entry",
		Status:   api.SessionAborted,
		Error:    "step 3: anchor \"submit.png\" not found",
		Results: []api.StepResult{
			{StepID: 3, Action: api.ActionClick, Status: api.StepFailed, Attempts: 2, Reason: "anchor not found"},
			{StepID: 4, Action: api.ActionType, Status: api.StepSkipped},
		},
	}

	if err := store.SaveSession(sum); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := store.GetSession("sess-bad")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	if got.Error != sum.Error {
		t.Fatalf("expected error %q, got %q", sum.Error, got.Error)
	}
	if got.Failed() != 1 || got.Skipped() != 1 {
		t.Fatalf("unexpected counts: failed=%d skipped=%d", got.Failed(), got.Skipped())
	}
}

func TestSQLiteSessionStore_GetSessionNotFound(t *testing.T) {
	store := newTestSessionStore(t)

	_, err := store.GetSession("does-not-exist")
	if err == nil {
		t.Fatalf("expected error for missing session")
	}
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSQLiteSessionStore_UpdateSessionNotFound(t *testing.T) {
	store := newTestSessionStore(t)

	err := store.UpdateSession(&api.Summary{ID: "missing", Status: api.SessionCompleted})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSQLiteSessionStore_ListSessionsFilter(t *testing.T) {
	store := newTestSessionStore(t)

	base := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

	// Two sessions for wf-A (one completed, one aborted), one completed for wf-B.
	sessions := []*api.Summary{
		{ID: "a-1", Workflow: "wf-A", Status: api.SessionCompleted, StartedAt: base.Add(2 * time.Minute)},
		{ID: "a-2", Workflow: "wf-A", Status: api.SessionAborted, StartedAt: base.Add(time.Minute)},
		{ID: "b-1", Workflow: "wf-B", Status: api.SessionCompleted, StartedAt: base},
	}

	for _, sum := range sessions {
		if err := store.SaveSession(sum); err != nil {
			t.Fatalf("SaveSession(%q) failed: %v", sum.ID, err)
		}
	}

	// No filter -> all sessions, oldest first.
	all, err := store.ListSessions(api.SessionFilter{})
	if err != nil {
		t.Fatalf("ListSessions (no filter) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[0].ID != "b-1" || all[2].ID != "a-1" {
		t.Fatalf("unexpected order: %q ... %q", all[0].ID, all[2].ID)
	}

	// Filter by workflow name.
	onlyA, err := store.ListSessions(api.SessionFilter{Workflow: "wf-A"})
	if err != nil {
		t.Fatalf("ListSessions (workflow filter) failed: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 sessions for wf-A, got %d", len(onlyA))
	}

	// Filter by status.
	completed, err := store.ListSessions(api.SessionFilter{Status: api.SessionCompleted})
	if err != nil {
		t.Fatalf("ListSessions (status filter) failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 COMPLETED sessions, got %d", len(completed))
	}
	for _, sum := range completed {
		if sum.Status != api.SessionCompleted {
			t.Fatalf("expected COMPLETED status, got %q", sum.Status)
		}
	}

	// Combined filter.
	completedA, err := store.ListSessions(api.SessionFilter{
		Workflow: "wf-A",
		Status:   api.SessionCompleted,
	})
	if err != nil {
		t.Fatalf("ListSessions (combined filter) failed: %v", err)
	}
	if len(completedA) != 1 || completedA[0].ID != "a-1" {
		t.Fatalf("unexpected sessions in combined filter: %+v", completedA)
	}
}
