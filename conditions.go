package reenact

import (
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// PostCondition constructors for WorkflowBuilder.Await. A zero timeout means
// the engine's configured default; there is no way to wait forever.

// AnchorAppears is satisfied when the template image is found on screen at
// or above the match threshold.
func AnchorAppears(image string, timeout time.Duration) PostCondition {
	return PostCondition{
		Kind:    api.CondAnchorAppears,
		Anchor:  &api.AnchorRef{Image: image},
		Timeout: api.Duration(timeout),
	}
}

// AnchorGone is satisfied when the template image is no longer found on
// screen. Useful for dialogs and spinners that should disappear.
func AnchorGone(image string, timeout time.Duration) PostCondition {
	return PostCondition{
		Kind:    api.CondAnchorGone,
		Anchor:  &api.AnchorRef{Image: image},
		Timeout: api.Duration(timeout),
	}
}

// TextAppears is satisfied when the recognized text of the full screen
// contains the expected string, case-insensitively.
func TextAppears(text string, timeout time.Duration) PostCondition {
	return PostCondition{
		Kind:    api.CondTextAppears,
		Text:    text,
		Timeout: api.Duration(timeout),
	}
}

// TextAppearsIn is like TextAppears but recognizes only the given screen
// region, which is both faster and less ambiguous.
func TextAppearsIn(text string, region Rect, timeout time.Duration) PostCondition {
	r := region
	return PostCondition{
		Kind:    api.CondTextAppears,
		Text:    text,
		Region:  &r,
		Timeout: api.Duration(timeout),
	}
}

// WindowTitled is satisfied when the active window's title contains the
// given title, case-insensitively; live titles carry decorations the
// recorder never saw. Config.ExactWindowTitle switches this to exact,
// whitespace-trimmed equality.
func WindowTitled(title string, timeout time.Duration) PostCondition {
	return PostCondition{
		Kind:    api.CondWindowTitle,
		Title:   title,
		Timeout: api.Duration(timeout),
	}
}

// ProcessRunning is satisfied when a process with the given name is running.
func ProcessRunning(name string, timeout time.Duration) PostCondition {
	return PostCondition{
		Kind:    api.CondProcessRunning,
		Process: name,
		Timeout: api.Duration(timeout),
	}
}
