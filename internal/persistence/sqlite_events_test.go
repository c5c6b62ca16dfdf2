package persistence

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/reenact/pkg/api"
)

func newTestEventStore(t *testing.T) *SQLiteEventStore {
	t.Helper()

	store, err := NewSQLiteEventStore(newTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteEventStore failed: %v", err)
	}

	return store
}

func TestSQLiteEventStore_AppendAndList(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	at := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	events := []api.ReplayEvent{
		{SessionID: "sess-1", At: at, Seq: 0, Type: api.EventSessionStarted, Workflow: "invoice-entry"},
		{SessionID: "sess-1", At: at.Add(time.Second), Seq: 1, Type: api.EventStepStarted, StepID: 1, Attempt: 1},
		{SessionID: "sess-1", At: at.Add(2 * time.Second), Seq: 2, Type: api.EventStepSucceeded, StepID: 1, Attempt: 1, Detail: "anchor (412, 388)"},
		{SessionID: "sess-2", At: at, Seq: 0, Type: api.EventSessionStarted, Workflow: "other"},
	}

	for _, ev := range events {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent(%q) failed: %v", ev.Type, err)
		}
	}

	got, err := store.ListEvents(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events for sess-1, got %d", len(got))
	}

	// Events come back in append order with fields intact.
	if got[0].Type != api.EventSessionStarted || got[0].Workflow != "invoice-entry" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Type != api.EventStepStarted || got[1].StepID != 1 || got[1].Attempt != 1 {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
	if got[2].Detail != "anchor (412, 388)" {
		t.Fatalf("unexpected detail: %q", got[2].Detail)
	}
	if !got[2].At.Equal(at.Add(2 * time.Second)) {
		t.Fatalf("expected timestamp %v, got %v", at.Add(2*time.Second), got[2].At)
	}
	for i, ev := range got {
		if ev.Seq != i {
			t.Fatalf("expected seq %d at index %d, got %d", i, i, ev.Seq)
		}
	}
}

func TestSQLiteEventStore_AppendFillsTimestamp(t *testing.T) {
	store := newTestEventStore(t)
	ctx := context.Background()

	before := time.Now()
	if err := store.AppendEvent(ctx, api.ReplayEvent{
		SessionID: "sess-1",
		Type:      api.EventSessionStarted,
	}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	got, err := store.ListEvents(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].At.Before(before) {
		t.Fatalf("expected timestamp to be filled in, got %v", got[0].At)
	}
}

func TestSQLiteEventStore_ListEventsEmpty(t *testing.T) {
	store := newTestEventStore(t)

	got, err := store.ListEvents(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
}
