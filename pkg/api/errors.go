package api

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is the cause recorded when the operator cancels a
	// session, from the API or by moving the pointer into the abort zone.
	ErrCancelled = errors.New("replay cancelled by operator")

	// ErrPostConditionTimeout marks a post-condition that never became
	// true within its timeout. It is a soft failure: the step's retry
	// policy decides what happens next.
	ErrPostConditionTimeout = errors.New("post-condition not satisfied before timeout")

	// ErrSessionState is returned when a session operation is called in
	// the wrong lifecycle state (for example Run before Preview).
	ErrSessionState = errors.New("invalid session state")
)

// ResolutionError reports that no target tier produced a usable point for a
// pointer step. Detail lists what each tier tried.
type ResolutionError struct {
	StepID int
	Detail string
}

func (e *ResolutionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("step %d: target not found", e.StepID)
	}
	return fmt.Sprintf("step %d: target not found: %s", e.StepID, e.Detail)
}

// InjectionError reports that an input primitive failed while the engine
// was driving the pointer or keyboard. The session never swallows these:
// the OS may have seen half of the action.
type InjectionError struct {
	// Action names the primitive that failed: "move_to", "mouse_down",
	// "mouse_up", "key_down" or "key_up".
	Action string
	Err    error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject %s: %v", e.Action, e.Err)
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

// FatalStepError wraps a step failure that aborts the whole session
// (the step's failure mode is FailureAbort and its attempts are exhausted).
type FatalStepError struct {
	StepID int
	Err    error
}

func (e *FatalStepError) Error() string {
	return fmt.Sprintf("step %d failed and aborted the session: %v", e.StepID, e.Err)
}

func (e *FatalStepError) Unwrap() error {
	return e.Err
}

// IsResolutionError reports whether err is (or wraps) a ResolutionError.
func IsResolutionError(err error) bool {
	var r *ResolutionError
	return errors.As(err, &r)
}

// IsInjectionError reports whether err is (or wraps) an InjectionError.
func IsInjectionError(err error) bool {
	var i *InjectionError
	return errors.As(err, &i)
}

// IsCancelled reports whether err means the operator cancelled the session.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
