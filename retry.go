package reenact

import "time"

// RetryBuilder provides a fluent way to construct RetryPolicy values
// for use with WorkflowBuilder.WithRetry.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts includes the first attempt, so 3 means "initial attempt plus
// up to 2 retries". maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithDebounce sets the pause between failed attempts. Like every recorded
// delay it is divided by the effective replay speed. If unset, the engine
// default applies.
//
// Example:
//
//	Retry(3).WithDebounce(750 * time.Millisecond)
func (r RetryBuilder) WithDebounce(d time.Duration) RetryBuilder {
	p := r.policy
	p.Debounce = Duration(d)
	return RetryBuilder{policy: p}
}

// InjectionSafe marks the step as safe to retry after a failed input
// injection. Injection failures are not retried by default: the OS may have
// delivered half of the action, and blindly repeating a half-delivered click
// or keystroke is unsafe. Opt in only for steps whose effect is idempotent.
func (r RetryBuilder) InjectionSafe() RetryBuilder {
	p := r.policy
	p.RetryInjection = true
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy to be passed to
// WorkflowBuilder.WithRetry.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}
