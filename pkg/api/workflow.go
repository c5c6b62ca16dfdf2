package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies what a step does when it executes.
type ActionKind string

const (
	ActionClick       ActionKind = "click"
	ActionDoubleClick ActionKind = "double_click"
	ActionType        ActionKind = "type"
	ActionPress       ActionKind = "press"
	ActionWait        ActionKind = "wait"
)

// MouseButton names a pointer button for click steps.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// FailureMode decides what happens to the session when a step has exhausted
// its attempts.
type FailureMode string

const (
	// FailureTolerate records the failure and continues with the next step.
	// It is the default: recorded workflows routinely survive a missed
	// click, and the session summary still reports every failed step.
	FailureTolerate FailureMode = "tolerate"

	// FailureAbort stops the session at this step and marks it ABORTED.
	FailureAbort FailureMode = "abort"
)

// AnchorRef names an image template in the anchor library. The engine
// resolves it against a live screen capture.
type AnchorRef struct {
	// Image is the file name of the template inside the anchor library
	// (for example "submit-button.png").
	Image string `json:"image" yaml:"image"`

	// Hash is the hex-encoded perceptual hash of the template, written by
	// the recorder. When set, the engine verifies the anchor file still
	// matches it before searching, catching edited or swapped libraries.
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`

	// Region optionally restricts the search to a screen rectangle.
	// A nil region searches the whole screen.
	Region *Rect `json:"region,omitempty" yaml:"region,omitempty"`

	// Threshold overrides the engine's match threshold for this anchor.
	// Zero means "use the configured default".
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Target describes where a pointer step should land. The engine tries the
// tiers in order: anchor match first, then the relative position inside the
// active window, then the absolute recorded coordinates. At least one tier
// must be set for click and double_click steps.
type Target struct {
	Anchor   *AnchorRef `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Relative *RelPoint  `json:"relative,omitempty" yaml:"relative,omitempty"`
	Absolute *Point     `json:"absolute,omitempty" yaml:"absolute,omitempty"`
}

// Empty reports whether no tier is set.
func (t Target) Empty() bool {
	return t.Anchor == nil && t.Relative == nil && t.Absolute == nil
}

// Or returns a copy of t with unset tiers filled in from fallback.
// Tiers already set on t win.
func (t Target) Or(fallback Target) Target {
	if t.Anchor == nil {
		t.Anchor = fallback.Anchor
	}
	if t.Relative == nil {
		t.Relative = fallback.Relative
	}
	if t.Absolute == nil {
		t.Absolute = fallback.Absolute
	}
	return t
}

// OrRelative returns a copy of t with the relative tier set to (x, y)
// fractions of the active window, unless one is already set.
func (t Target) OrRelative(x, y float64) Target {
	return t.Or(Target{Relative: &RelPoint{X: x, Y: y}})
}

// OrAt returns a copy of t with the absolute tier set to (x, y) screen
// coordinates, unless one is already set.
func (t Target) OrAt(x, y int) Target {
	return t.Or(Target{Absolute: &Point{X: x, Y: y}})
}

// KeyChord is a key press with optional modifiers, for press steps.
// Key names are normalized by the engine ("return" and "enter" are the same
// key, "cmd" and "meta" are the same modifier).
type KeyChord struct {
	Key       string   `json:"key" yaml:"key"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

func (k KeyChord) String() string {
	if len(k.Modifiers) == 0 {
		return k.Key
	}
	return strings.Join(k.Modifiers, "+") + "+" + k.Key
}

// Step is a single recorded action inside a workflow.
type Step struct {
	// ID orders the step inside its workflow. IDs are positive and strictly
	// increasing; the recorder numbers them 1..n.
	ID int `json:"id" yaml:"id"`

	Action ActionKind `json:"action" yaml:"action"`

	// Target is required for click and double_click.
	Target Target `json:"target,omitempty" yaml:"target,omitempty"`

	// Button defaults to left when empty.
	Button MouseButton `json:"button,omitempty" yaml:"button,omitempty"`

	// Clicks is the number of clicks for double_click steps (default 2;
	// recorders occasionally capture triple clicks).
	Clicks int `json:"clicks,omitempty" yaml:"clicks,omitempty"`

	// Text is the payload for type steps.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Key is the chord for press steps.
	Key *KeyChord `json:"key,omitempty" yaml:"key,omitempty"`

	// Wait is the pause duration for wait steps.
	Wait Duration `json:"wait,omitempty" yaml:"wait,omitempty"`

	// Post is the observable outcome to wait for after the action.
	// When nil the engine falls back to a short fixed delay.
	Post *PostCondition `json:"post,omitempty" yaml:"post,omitempty"`

	// Retry overrides the engine's default retry policy for this step.
	Retry *RetryPolicy `json:"retry,omitempty" yaml:"retry,omitempty"`

	// OnFailure defaults to FailureTolerate when empty.
	OnFailure FailureMode `json:"on_failure,omitempty" yaml:"on_failure,omitempty"`

	// Speed multiplies the session speed for this step only. Zero inherits.
	Speed float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	// Note is a free-form annotation carried over from the recorder.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Describe returns a short human-readable description of the step, used by
// preview reports and the CLI.
func (s Step) Describe() string {
	switch s.Action {
	case ActionClick, ActionDoubleClick:
		verb := "click"
		if s.Action == ActionDoubleClick {
			verb = "double-click"
			if s.Clicks > 2 {
				verb = fmt.Sprintf("%d-click", s.Clicks)
			}
		}
		button := s.Button
		if button == "" {
			button = ButtonLeft
		}
		return fmt.Sprintf("%s %s at %s", verb, button, s.Target.describe())
	case ActionType:
		return fmt.Sprintf("type %q", s.Text)
	case ActionPress:
		if s.Key == nil {
			return "press"
		}
		return fmt.Sprintf("press %s", s.Key)
	case ActionWait:
		return fmt.Sprintf("wait %s", s.Wait)
	default:
		return string(s.Action)
	}
}

func (t Target) describe() string {
	var parts []string
	if t.Anchor != nil {
		parts = append(parts, fmt.Sprintf("anchor %q", t.Anchor.Image))
	}
	if t.Relative != nil {
		parts = append(parts, fmt.Sprintf("window (%.2f, %.2f)", t.Relative.X, t.Relative.Y))
	}
	if t.Absolute != nil {
		parts = append(parts, fmt.Sprintf("screen (%d, %d)", t.Absolute.X, t.Absolute.Y))
	}
	if len(parts) == 0 {
		return "<no target>"
	}
	return strings.Join(parts, ", then ")
}

// RetryPolicy controls how a step is retried when an attempt fails.
// MaxAttempts includes the first attempt. For example:
//
//	MaxAttempts = 1 => no retries (just the initial attempt)
//	MaxAttempts = 3 => initial attempt + up to 2 retries
//
// Debounce is the pause between failed attempts. It is not applied before
// the first attempt, and it is divided by the effective speed like every
// other recorded delay. If zero, the engine default applies.
type RetryPolicy struct {
	MaxAttempts int      `json:"max_attempts" yaml:"max_attempts"`
	Debounce    Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`

	// RetryInjection opts this step in to retrying after a failed input
	// injection. Injection failures are not retried by default because the
	// action may have partially happened (a pressed-but-never-released
	// button, half of a text field). Set it only for steps that are safe
	// to repeat.
	RetryInjection bool `json:"retry_injection,omitempty" yaml:"retry_injection,omitempty"`
}

// Workflow is a recorded sequence of UI steps.
type Workflow struct {
	// Name is the unique workflow name (the recorder uses the session name).
	Name string `json:"name" yaml:"name"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	// Screen is the screen resolution the workflow was recorded at.
	// Informational; resolution-independent targeting is what the anchor
	// and relative tiers are for.
	Screen *Size `json:"screen,omitempty" yaml:"screen,omitempty"`

	// Summary is the recorder's one-paragraph description of the workflow.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	Steps []Step `json:"steps" yaml:"steps"`
}

// Validate checks the workflow for structural problems. It is called on
// registration and on document load; the engine never runs an invalid
// workflow.
func (w Workflow) Validate() error {
	if w.Name == "" {
		return errors.New("workflow name is required")
	}
	if len(w.Steps) == 0 {
		return errors.New("workflow must have at least one step")
	}

	prevID := 0
	for i, s := range w.Steps {
		if s.ID <= prevID {
			return fmt.Errorf("step %d: id %d is not strictly increasing (previous %d)", i, s.ID, prevID)
		}
		prevID = s.ID

		if err := s.validate(); err != nil {
			return fmt.Errorf("step %d: %w", s.ID, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionClick, ActionDoubleClick:
		if s.Target.Empty() {
			return errors.New("pointer step needs at least one target tier")
		}
		if s.Button != "" && s.Button != ButtonLeft && s.Button != ButtonRight && s.Button != ButtonMiddle {
			return fmt.Errorf("unknown mouse button %q", s.Button)
		}
		if s.Clicks < 0 {
			return errors.New("clicks must not be negative")
		}
	case ActionType:
		if s.Text == "" {
			return errors.New("type step needs text")
		}
	case ActionPress:
		if s.Key == nil || s.Key.Key == "" {
			return errors.New("press step needs a key")
		}
	case ActionWait:
		if s.Wait <= 0 {
			return errors.New("wait step needs a positive duration")
		}
	case "":
		return errors.New("step action is required")
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}

	if s.Speed < 0 {
		return errors.New("speed must not be negative")
	}
	if s.OnFailure != "" && s.OnFailure != FailureTolerate && s.OnFailure != FailureAbort {
		return fmt.Errorf("unknown failure mode %q", s.OnFailure)
	}
	if s.Retry != nil && s.Retry.MaxAttempts < 0 {
		return errors.New("max_attempts must not be negative")
	}
	if s.Post != nil {
		if err := s.Post.validate(); err != nil {
			return err
		}
	}
	return nil
}
