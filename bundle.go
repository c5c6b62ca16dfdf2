package reenact

import (
	"database/sql"

	"github.com/petrijr/reenact/internal/engine"
	"github.com/petrijr/reenact/internal/persistence"
)

// Bundle wires a workflow document library, a SQLite session archive and an
// Engine into one unit: the complete replay stack for a desktop host.
type Bundle struct {
	Engine Engine

	// LibraryDir is the workflow document directory the engine reads
	// from and registers into (empty when the bundle is memory-backed).
	LibraryDir string
}

// BundleOptions configures NewSQLiteBundle.
type BundleOptions struct {
	// Providers are the platform collaborators; leave zero for an
	// inspection-only bundle (list, validate, dry-run, read the archive).
	Providers Providers

	// Config tunes replay pacing and matching.
	Config Config

	// LibraryDir is the directory of workflow documents (JSON/YAML). Edits
	// on disk show up without a restart; RegisterWorkflow writes documents
	// back into it. Empty keeps registered workflows in memory only.
	LibraryDir string

	// AnchorDir is the directory of anchor template images.
	AnchorDir string

	// Observer receives session and step lifecycle callbacks.
	Observer Observer
}

// NewSQLiteBundle constructs an Engine whose session summaries and replay
// events persist in the provided SQLite database, with workflow documents
// served from a library directory.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:reenact.db?_journal=WAL")
//	bundle, err := reenact.NewSQLiteBundle(db, reenact.BundleOptions{
//	    Providers:  hostProviders,
//	    LibraryDir: "workflows",
//	    AnchorDir:  "anchors",
//	})
//	// run sessions via bundle.Engine, inspect past runs via its archive
func NewSQLiteBundle(db *sql.DB, opts BundleOptions) (*Bundle, error) {
	sessions, err := persistence.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}

	var workflows persistence.WorkflowStore
	if opts.LibraryDir != "" {
		workflows = persistence.NewDirectoryLibrary(opts.LibraryDir)
	} else {
		workflows = persistence.NewInMemoryStore()
	}

	eng := engine.NewEngineWithConfig(engine.Config{
		Providers: opts.Providers,
		Replay:    opts.Config,
		AnchorDir: opts.AnchorDir,
		Observer:  opts.Observer,
		Persistence: persistence.Persistence{
			Workflows: workflows,
			Sessions:  sessions,
			Events:    events,
		},
	})

	return &Bundle{Engine: eng, LibraryDir: opts.LibraryDir}, nil
}

// Workflow document helpers.

// LoadWorkflow reads and validates a workflow document (.json, .yaml or
// .yml, chosen by extension).
func LoadWorkflow(path string) (Workflow, error) {
	return persistence.LoadDocument(path)
}

// SaveWorkflow validates and writes a workflow document. JSON documents are
// written indented so recordings stay hand-editable.
func SaveWorkflow(path string, wf Workflow) error {
	return persistence.SaveDocument(path, wf)
}
