package reenact

import (
	"fmt"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// WorkflowBuilder provides a fluent API for defining workflows in code.
// Recorded workflow documents are the other source; the builder exists for
// tests, examples and hand-written automations:
//
//	wf := reenact.New("submit-form").
//	    Click(reenact.Anchor("name-field.png")).
//	    Type("Ada Lovelace").
//	    Press("enter").
//	    Await(reenact.AnchorAppears("confirmation.png", 5*time.Second))
//
//	if err := wf.Register(engine); err != nil {
//	    log.Fatal(err)
//	}
//
// Await, WithRetry, OrAbort, AtSpeed and WithButton modify the most recently
// added step, reading like a sentence. Step IDs are numbered 1..n in the
// order the steps are added.
type WorkflowBuilder struct {
	wf api.Workflow
}

// New creates a new workflow builder with the given name.
func New(name string) *WorkflowBuilder {
	return &WorkflowBuilder{
		wf: api.Workflow{
			Name:      name,
			CreatedAt: time.Now(),
			Steps:     make([]api.Step, 0),
		},
	}
}

// Name returns the workflow name.
func (b *WorkflowBuilder) Name() string {
	return b.wf.Name
}

// Workflow returns the built workflow.
// Typically used when interacting with lower-level APIs.
func (b *WorkflowBuilder) Workflow() Workflow {
	return b.wf
}

// Screen records the resolution the workflow targets. Informational: the
// anchor and relative tiers are what make replay resolution-independent.
func (b *WorkflowBuilder) Screen(w, h int) *WorkflowBuilder {
	b.wf.Screen = &api.Size{W: w, H: h}
	return b
}

// Summary attaches the recorder's one-paragraph workflow description.
func (b *WorkflowBuilder) Summary(text string) *WorkflowBuilder {
	b.wf.Summary = text
	return b
}

func (b *WorkflowBuilder) append(s api.Step) *WorkflowBuilder {
	s.ID = len(b.wf.Steps) + 1
	b.wf.Steps = append(b.wf.Steps, s)
	return b
}

// Click appends a left click on the given target.
func (b *WorkflowBuilder) Click(t Target) *WorkflowBuilder {
	if t.Empty() {
		panic("reenact: Click needs at least one target tier")
	}
	return b.append(api.Step{Action: api.ActionClick, Target: t})
}

// DoubleClick appends a double left click on the given target.
func (b *WorkflowBuilder) DoubleClick(t Target) *WorkflowBuilder {
	if t.Empty() {
		panic("reenact: DoubleClick needs at least one target tier")
	}
	return b.append(api.Step{Action: api.ActionDoubleClick, Target: t})
}

// Type appends a step that types the given text at the current focus.
func (b *WorkflowBuilder) Type(text string) *WorkflowBuilder {
	if text == "" {
		panic("reenact: Type needs text")
	}
	return b.append(api.Step{Action: api.ActionType, Text: text})
}

// Press appends a key chord: Press("enter"), Press("s", "ctrl").
func (b *WorkflowBuilder) Press(key string, modifiers ...string) *WorkflowBuilder {
	if key == "" {
		panic("reenact: Press needs a key")
	}
	return b.append(api.Step{Action: api.ActionPress, Key: &api.KeyChord{Key: key, Modifiers: modifiers}})
}

// Wait appends a step that pauses for the given duration (speed-scaled).
func (b *WorkflowBuilder) Wait(d time.Duration) *WorkflowBuilder {
	if d <= 0 {
		panic("reenact: Wait needs a positive duration")
	}
	return b.append(api.Step{Action: api.ActionWait, Wait: api.Duration(d)})
}

func (b *WorkflowBuilder) last(what string) *api.Step {
	if len(b.wf.Steps) == 0 {
		panic(fmt.Sprintf("reenact: %s must follow a step", what))
	}
	return &b.wf.Steps[len(b.wf.Steps)-1]
}

// Await gives the previous step a post-condition to wait for instead of the
// fixed fallback delay.
func (b *WorkflowBuilder) Await(cond PostCondition) *WorkflowBuilder {
	c := cond
	b.last("Await").Post = &c
	return b
}

// WithRetry gives the previous step a retry policy.
func (b *WorkflowBuilder) WithRetry(policy RetryPolicy) *WorkflowBuilder {
	// Copy so callers can mutate their RetryPolicy after the call without
	// affecting the stored step.
	p := policy
	b.last("WithRetry").Retry = &p
	return b
}

// OrAbort makes a failure of the previous step fatal: the session ends
// ABORTED instead of recording the failure and continuing.
func (b *WorkflowBuilder) OrAbort() *WorkflowBuilder {
	b.last("OrAbort").OnFailure = api.FailureAbort
	return b
}

// AtSpeed multiplies the session speed for the previous step only.
func (b *WorkflowBuilder) AtSpeed(multiplier float64) *WorkflowBuilder {
	if multiplier <= 0 {
		panic("reenact: AtSpeed needs a positive multiplier")
	}
	b.last("AtSpeed").Speed = multiplier
	return b
}

// WithButton changes the pointer button of the previous click step.
func (b *WorkflowBuilder) WithButton(button MouseButton) *WorkflowBuilder {
	s := b.last("WithButton")
	if s.Action != api.ActionClick && s.Action != api.ActionDoubleClick {
		panic("reenact: WithButton must follow a click step")
	}
	s.Button = button
	return b
}

// Register registers the built workflow with the given engine.
func (b *WorkflowBuilder) Register(eng Engine) error {
	return eng.RegisterWorkflow(b.wf)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *WorkflowBuilder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}

// Target constructors. Combine tiers with Or / OrRelative / OrAt:
//
//	reenact.Anchor("submit.png").OrRelative(0.5, 0.9).OrAt(640, 700)

// Anchor targets the center of a template image from the anchor library.
func Anchor(image string) Target {
	return Target{Anchor: &api.AnchorRef{Image: image}}
}

// AnchorIn targets a template image, searching only inside region.
func AnchorIn(image string, region Rect) Target {
	r := region
	return Target{Anchor: &api.AnchorRef{Image: image, Region: &r}}
}

// Relative targets (x, y) as fractions of the active window's bounding box.
func Relative(x, y float64) Target {
	return Target{Relative: &api.RelPoint{X: x, Y: y}}
}

// At targets absolute screen coordinates, clamped to the current screen at
// replay time.
func At(x, y int) Target {
	return Target{Absolute: &api.Point{X: x, Y: y}}
}
