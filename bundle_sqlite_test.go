package reenact

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/petrijr/reenact/internal/testutil"
)

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+path+"?_journal=WAL")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBundle_LibraryAndArchiveRoundTrip(t *testing.T) {
	libDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "reenact.db")

	// Seed the library with one YAML and one JSON document.
	yamlWf := New("fill-form").
		Click(At(100, 80)).
		Type("Ada Lovelace").
		Workflow()
	require.NoError(t, SaveWorkflow(filepath.Join(libDir, "fill-form.yaml"), yamlWf))

	jsonWf := New("press-save").Press("s", "ctrl").Workflow()
	require.NoError(t, SaveWorkflow(filepath.Join(libDir, "press-save.json"), jsonWf))

	screen := testutil.NewFakeScreen(Rect{W: 640, H: 480})
	input := testutil.NewFakeInput()
	input.SetCursor(Point{X: 320, Y: 240})

	bundle, err := NewSQLiteBundle(openTestDB(t, dbPath), BundleOptions{
		Providers:  Providers{Screen: screen, Input: input},
		Config:     quickConfig(),
		LibraryDir: libDir,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"fill-form", "press-save"}, bundle.Engine.Workflows())

	loaded, err := bundle.Engine.Workflow("fill-form")
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 2)

	session, err := bundle.Engine.NewSession("fill-form")
	require.NoError(t, err)
	_, err = session.Preview(context.Background())
	require.NoError(t, err)
	sum, err := session.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, SessionCompleted, sum.Status)

	// A second bundle over the same database file sees the archived run.
	reopened, err := NewSQLiteBundle(openTestDB(t, dbPath), BundleOptions{LibraryDir: libDir})
	require.NoError(t, err)

	got, err := GetSession(context.Background(), reopened.Engine, sum.ID)
	require.NoError(t, err)
	require.Equal(t, SessionCompleted, got.Status)
	require.Len(t, got.Results, 2)

	events, err := SessionEvents(context.Background(), reopened.Engine, sum.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	listed, err := ListSessions(context.Background(), reopened.Engine, SessionFilter{Workflow: "fill-form"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestBundle_RegisterWritesDocumentIntoLibrary(t *testing.T) {
	libDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "reenact.db")

	bundle, err := NewSQLiteBundle(openTestDB(t, dbPath), BundleOptions{LibraryDir: libDir})
	require.NoError(t, err)

	New("new-recording").Type("hi").MustRegister(bundle.Engine)

	// A fresh bundle over the same directory finds the document on disk.
	other, err := NewSQLiteBundle(openTestDB(t, filepath.Join(t.TempDir(), "other.db")), BundleOptions{LibraryDir: libDir})
	require.NoError(t, err)
	require.Contains(t, other.Engine.Workflows(), "new-recording")
}

func TestBundle_InspectionOnlyWithoutProviders(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reenact.db")
	bundle, err := NewSQLiteBundle(openTestDB(t, dbPath), BundleOptions{})
	require.NoError(t, err)

	New("look-only").Type("hi").MustRegister(bundle.Engine)

	report, err := DryRun(context.Background(), bundle.Engine, "look-only")
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)

	_, err = bundle.Engine.NewSession("look-only")
	require.ErrorIs(t, err, ErrWorkflowRequiresProvider)
}

func TestWorkflowDocuments_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	wf := New("doc-round-trip").
		Click(Anchor("ok.png").OrRelative(0.5, 0.5).OrAt(10, 10)).
		Await(TextAppears("Saved", 3*time.Second)).
		WithRetry(Retry(2).WithDebounce(100 * time.Millisecond).Policy()).
		Workflow()

	for _, name := range []string{"wf.json", "wf.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveWorkflow(path, wf))

		got, err := LoadWorkflow(path)
		require.NoError(t, err, name)
		require.Equal(t, wf.Name, got.Name, name)
		require.Len(t, got.Steps, 1, name)

		step := got.Steps[0]
		require.NotNil(t, step.Target.Anchor, name)
		require.NotNil(t, step.Target.Relative, name)
		require.NotNil(t, step.Target.Absolute, name)
		require.NotNil(t, step.Post, name)
		require.Equal(t, wf.Steps[0].Post.Timeout, step.Post.Timeout, name)
		require.NotNil(t, step.Retry, name)
		require.Equal(t, 2, step.Retry.MaxAttempts, name)
	}
}
