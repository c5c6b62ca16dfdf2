package api

import (
	"errors"
	"fmt"
)

// ConditionKind identifies a post-condition check.
type ConditionKind string

const (
	// CondAnchorAppears is satisfied when the anchor template is found on
	// screen at or above the match threshold.
	CondAnchorAppears ConditionKind = "anchor_appears"

	// CondAnchorGone is satisfied when the anchor template is no longer
	// found on screen.
	CondAnchorGone ConditionKind = "anchor_gone"

	// CondTextAppears is satisfied when the recognized text of a screen
	// region contains the expected string (case-insensitive).
	CondTextAppears ConditionKind = "text_appears"

	// CondWindowTitle is satisfied when the active window title equals the
	// expected title (case-insensitive).
	CondWindowTitle ConditionKind = "window_title"

	// CondProcessRunning is satisfied when a process with the given name
	// is running.
	CondProcessRunning ConditionKind = "process_running"
)

// PostCondition is the observable outcome a step waits for after its action.
// The engine polls the condition until it is satisfied or Timeout elapses.
// Every condition has a finite timeout: a zero Timeout means the configured
// default, never "wait forever".
type PostCondition struct {
	Kind ConditionKind `json:"kind" yaml:"kind"`

	// Anchor is required for anchor_appears and anchor_gone.
	Anchor *AnchorRef `json:"anchor,omitempty" yaml:"anchor,omitempty"`

	// Text is required for text_appears.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Region optionally restricts text recognition to a screen rectangle.
	Region *Rect `json:"region,omitempty" yaml:"region,omitempty"`

	// Title is required for window_title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Process is required for process_running.
	Process string `json:"process,omitempty" yaml:"process,omitempty"`

	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Describe returns a short human-readable description of the condition.
func (c PostCondition) Describe() string {
	switch c.Kind {
	case CondAnchorAppears:
		return fmt.Sprintf("until anchor %q appears", c.anchorImage())
	case CondAnchorGone:
		return fmt.Sprintf("until anchor %q is gone", c.anchorImage())
	case CondTextAppears:
		return fmt.Sprintf("until text %q appears", c.Text)
	case CondWindowTitle:
		return fmt.Sprintf("until active window is titled %q", c.Title)
	case CondProcessRunning:
		return fmt.Sprintf("until process %q is running", c.Process)
	default:
		return string(c.Kind)
	}
}

func (c PostCondition) anchorImage() string {
	if c.Anchor == nil {
		return ""
	}
	return c.Anchor.Image
}

func (c PostCondition) validate() error {
	switch c.Kind {
	case CondAnchorAppears, CondAnchorGone:
		if c.Anchor == nil || c.Anchor.Image == "" {
			return fmt.Errorf("%s condition needs an anchor", c.Kind)
		}
	case CondTextAppears:
		if c.Text == "" {
			return errors.New("text_appears condition needs text")
		}
	case CondWindowTitle:
		if c.Title == "" {
			return errors.New("window_title condition needs a title")
		}
	case CondProcessRunning:
		if c.Process == "" {
			return errors.New("process_running condition needs a process name")
		}
	case "":
		return errors.New("condition kind is required")
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	if c.Timeout < 0 {
		return errors.New("condition timeout must not be negative")
	}
	return nil
}
