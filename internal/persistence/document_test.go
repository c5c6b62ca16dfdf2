package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

func TestDocument_JSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice-entry.json")

	wf := sampleWorkflow("invoice-entry")
	wf.Summary = "Enter one invoice into the billing app"
	wf.Screen = &api.Size{W: 1920, H: 1080}

	if err := SaveDocument(path, wf); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if got.Name != "invoice-entry" {
		t.Fatalf("expected name invoice-entry, got %q", got.Name)
	}
	if got.Summary != wf.Summary {
		t.Fatalf("expected summary %q, got %q", wf.Summary, got.Summary)
	}
	if got.Screen == nil || *got.Screen != *wf.Screen {
		t.Fatalf("expected screen %+v, got %+v", wf.Screen, got.Screen)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got.Steps))
	}
	if got.Steps[1].Wait.Std() != 500*time.Millisecond {
		t.Fatalf("expected wait 500ms, got %v", got.Steps[1].Wait.Std())
	}
}

func TestDocument_YAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice-entry.yaml")

	wf := sampleWorkflow("invoice-entry")

	if err := SaveDocument(path, wf); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	if got.Name != wf.Name || len(got.Steps) != 2 {
		t.Fatalf("unexpected workflow: %+v", got)
	}
	if got.Steps[0].Target.Anchor == nil || got.Steps[0].Target.Anchor.Image != "ok-button.png" {
		t.Fatalf("unexpected anchor target: %+v", got.Steps[0].Target)
	}
}

func TestDocument_NameDefaultsToFileName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy-recording.json")

	doc := `{
  "steps": [
    {"id": 1, "action": "wait", "wait": "1s"}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if got.Name != "legacy-recording" {
		t.Fatalf("expected name from file, got %q", got.Name)
	}
}

func TestDocument_UnknownFieldsTolerated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wf.json")

	// Recorders from newer builds may write fields this build does not know.
	doc := `{
  "name": "wf",
  "recorder_version": "9.9",
  "steps": [
    {"id": 1, "action": "wait", "wait": 2, "trace_id": "abc"}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if got.Steps[0].Wait.Std() != 2*time.Second {
		t.Fatalf("expected numeric wait to parse as seconds, got %v", got.Steps[0].Wait.Std())
	}
}

func TestDocument_InvalidWorkflowRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")

	// A click step with no target cannot be replayed.
	doc := `{
  "name": "bad",
  "steps": [
    {"id": 1, "action": "click"}
  ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadDocument(path); err == nil {
		t.Fatalf("expected validation error for click without target")
	}
}

func TestDocument_UnsupportedExtension(t *testing.T) {
	if _, err := LoadDocument("workflow.toml"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if err := SaveDocument("workflow.toml", sampleWorkflow("wf")); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestDirectoryLibrary_SaveGetList(t *testing.T) {
	lib := NewDirectoryLibrary(filepath.Join(t.TempDir(), "workflows"))

	if err := lib.SaveWorkflow(sampleWorkflow("invoice-entry")); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}
	if err := lib.SaveWorkflow(sampleWorkflow("archive-mail")); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}

	got, err := lib.GetWorkflow("invoice-entry")
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Name != "invoice-entry" || len(got.Steps) != 2 {
		t.Fatalf("unexpected workflow: %+v", got)
	}

	names, err := lib.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(names) != 2 || names[0] != "archive-mail" || names[1] != "invoice-entry" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDirectoryLibrary_GetWorkflowNotFound(t *testing.T) {
	lib := NewDirectoryLibrary(t.TempDir())

	_, err := lib.GetWorkflow("does-not-exist")
	if !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("expected ErrWorkflowNotFound, got %v", err)
	}
}

func TestDirectoryLibrary_FindsYAMLDocuments(t *testing.T) {
	dir := t.TempDir()
	lib := NewDirectoryLibrary(dir)

	if err := SaveDocument(filepath.Join(dir, "hand-written.yaml"), sampleWorkflow("hand-written")); err != nil {
		t.Fatalf("SaveDocument failed: %v", err)
	}

	got, err := lib.GetWorkflow("hand-written")
	if err != nil {
		t.Fatalf("GetWorkflow failed: %v", err)
	}
	if got.Name != "hand-written" {
		t.Fatalf("unexpected workflow: %+v", got)
	}

	names, err := lib.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(names) != 1 || names[0] != "hand-written" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDirectoryLibrary_ListSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	lib := NewDirectoryLibrary(dir)

	if err := lib.SaveWorkflow(sampleWorkflow("wf")); err != nil {
		t.Fatalf("SaveWorkflow failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "anchors"), 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	names, err := lib.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(names) != 1 || names[0] != "wf" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDirectoryLibrary_MissingDirListsEmpty(t *testing.T) {
	lib := NewDirectoryLibrary(filepath.Join(t.TempDir(), "never-created"))

	names, err := lib.ListWorkflows()
	if err != nil {
		t.Fatalf("ListWorkflows failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty library, got %v", names)
	}
}
