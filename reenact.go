package reenact

import (
	"context"
	"database/sql"

	"github.com/petrijr/reenact/internal/engine"
	"github.com/petrijr/reenact/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine        = api.Engine
	Session       = api.Session
	SessionFilter = api.SessionFilter

	Workflow      = api.Workflow
	Step          = api.Step
	Target        = api.Target
	AnchorRef     = api.AnchorRef
	KeyChord      = api.KeyChord
	PostCondition = api.PostCondition
	RetryPolicy   = api.RetryPolicy
	FailureMode   = api.FailureMode
	ActionKind    = api.ActionKind
	MouseButton   = api.MouseButton

	Config   = api.Config
	Point    = api.Point
	RelPoint = api.RelPoint
	Rect     = api.Rect
	Size     = api.Size
	Duration = api.Duration

	Summary       = api.Summary
	StepResult    = api.StepResult
	PreviewReport = api.PreviewReport
	ReplayEvent   = api.ReplayEvent
	SessionStatus = api.SessionStatus
	StepStatus    = api.StepStatus

	Providers           = api.Providers
	ScreenProvider      = api.ScreenProvider
	InputProvider       = api.InputProvider
	TextRecognizer      = api.TextRecognizer
	WindowInfoProvider  = api.WindowInfoProvider
	ProcessInfoProvider = api.ProcessInfoProvider

	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export error helpers so callers can classify failures without
// importing pkg/api.

var (
	ErrCancelled                = api.ErrCancelled
	ErrPostConditionTimeout     = api.ErrPostConditionTimeout
	ErrSessionState             = api.ErrSessionState
	ErrWorkflowRequiresProvider = api.ErrWorkflowRequiresProvider

	IsResolutionError = api.IsResolutionError
	IsInjectionError  = api.IsInjectionError
	IsCancelled       = api.IsCancelled
)

// Re-export status values for convenience.

const (
	SessionPending              = api.SessionPending
	SessionPreviewing           = api.SessionPreviewing
	SessionAwaitingConfirmation = api.SessionAwaitingConfirmation
	SessionRunning              = api.SessionRunning
	SessionCompleted            = api.SessionCompleted
	SessionCancelled            = api.SessionCancelled
	SessionAborted              = api.SessionAborted

	StepSucceeded = api.StepSucceeded
	StepFailed    = api.StepFailed
	StepSkipped   = api.StepSkipped

	FailureTolerate = api.FailureTolerate
	FailureAbort    = api.FailureAbort

	ButtonLeft   = api.ButtonLeft
	ButtonRight  = api.ButtonRight
	ButtonMiddle = api.ButtonMiddle
)

// Options configures an engine beyond what the simple constructors cover.
type Options struct {
	// Providers are the platform collaborators. An engine with none can
	// still register, validate and dry-run workflows.
	Providers Providers

	// Config tunes replay pacing and matching; the zero value uses the
	// defaults the workflows were recorded with.
	Config Config

	// AnchorDir is the directory holding anchor template images.
	AnchorDir string

	// Observer receives session and step lifecycle callbacks.
	Observer Observer
}

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory stores.
func NewInMemoryEngine(providers Providers) Engine {
	return engine.NewInMemoryEngine(providers)
}

// NewInMemoryEngineWithOptions returns an in-memory Engine with full
// configuration.
func NewInMemoryEngineWithOptions(opts Options) Engine {
	return engine.NewEngineWithConfig(engine.Config{
		Providers: opts.Providers,
		Replay:    opts.Config,
		AnchorDir: opts.AnchorDir,
		Observer:  opts.Observer,
	})
}

// NewSQLiteEngine returns an Engine that archives session summaries and
// replay events in a SQLite database. Registered workflows are kept
// in-memory; workflow documents on disk are their source of truth.
func NewSQLiteEngine(db *sql.DB, providers Providers) (Engine, error) {
	return engine.NewSQLiteEngine(providers, db)
}

// Convenience helpers that just forward to the underlying Engine.

// DryRun builds the preview report for a registered workflow without
// creating a session. It performs no captures and no injections.
func DryRun(ctx context.Context, eng Engine, name string) (*PreviewReport, error) {
	return eng.DryRun(ctx, name)
}

// GetSession fetches an archived session summary by ID.
func GetSession(ctx context.Context, eng Engine, id string) (*Summary, error) {
	return eng.Session(ctx, id)
}

// ListSessions lists archived session summaries according to the filter.
func ListSessions(ctx context.Context, eng Engine, filter SessionFilter) ([]*Summary, error) {
	return eng.Sessions(ctx, filter)
}

// SessionEvents returns the archived event history of a session.
func SessionEvents(ctx context.Context, eng Engine, sessionID string) ([]ReplayEvent, error) {
	return eng.Events(ctx, sessionID)
}
