package api

import (
	"context"
	"image"
	"time"
)

// ScreenProvider captures what is currently on screen.
//
// Capture with a nil region grabs the full screen. The returned image may be
// larger than the requested region in pointer units (high-DPI screens); the
// engine maps matched pixels back into pointer coordinates using Bounds.
type ScreenProvider interface {
	Bounds() (Rect, error)
	Capture(region *Rect) (image.Image, error)
}

// InputProvider injects pointer and keyboard primitives. Implementations
// talk to the OS (or to a remote desktop); the engine composes all higher
// level actions out of these five primitives plus CursorPosition.
type InputProvider interface {
	// MoveTo glides the pointer to p over the given duration.
	MoveTo(ctx context.Context, p Point, d time.Duration) error

	MouseDown(ctx context.Context, button MouseButton) error
	MouseUp(ctx context.Context, button MouseButton) error

	// KeyDown and KeyUp take normalized key names ("enter", "ctrl", "a").
	KeyDown(ctx context.Context, key string) error
	KeyUp(ctx context.Context, key string) error

	// CursorPosition reports where the pointer currently is. The abort
	// zone watcher polls it while a session runs.
	CursorPosition() (Point, error)
}

// TextRecognizer turns a captured image into text. Only needed when a
// workflow uses text_appears conditions.
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// WindowInfoProvider reports on the currently focused window. Used for the
// relative target tier and window_title conditions.
type WindowInfoProvider interface {
	ActiveWindowTitle() (string, error)
	ActiveWindowBounds() (Rect, error)
}

// ProcessInfoProvider answers process_running conditions.
type ProcessInfoProvider interface {
	ProcessRunning(name string) (bool, error)
}

// Providers bundles the platform collaborators a live session needs.
// Screen and Input are mandatory for running sessions; the others are only
// needed when a workflow references them (the engine checks at session
// creation). An engine with no providers at all can still register, list,
// validate and dry-run workflows.
type Providers struct {
	Screen  ScreenProvider
	Input   InputProvider
	Text    TextRecognizer
	Window  WindowInfoProvider
	Process ProcessInfoProvider
}
