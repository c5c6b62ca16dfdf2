package api

import "time"

// Config tunes replay behavior. The zero value is usable: every field falls
// back to the defaults below, which match the pacing the workflows were
// recorded with.
type Config struct {
	// SpeedMultiplier divides every recorded delay (pointer glides, typing
	// cadence, pauses, retry debounce). 2.0 replays twice as fast, 0.5 at
	// half speed. It never changes the poll interval: condition checks and
	// cancellation stay equally responsive at any speed.
	SpeedMultiplier float64

	// AnchorThreshold is the minimum normalized match score for an anchor
	// to count as found. Per-anchor thresholds in the workflow override it.
	AnchorThreshold float64

	// ExactWindowTitle switches window_title conditions from substring
	// containment to exact (whitespace-trimmed) equality. Substring is the
	// default: live titles carry decorations the recorder never saw, like
	// "Invoices - LedgerPro - 2 unsaved". Both modes are case-insensitive.
	ExactWindowTitle bool

	// DefaultTimeout bounds post-condition waits that do not carry their
	// own timeout.
	DefaultTimeout time.Duration

	// TextTimeout bounds text_appears waits separately; recognition is the
	// slowest check and tends to need the extra headroom.
	TextTimeout time.Duration

	// DefaultMaxAttempts is the per-step attempt budget when a step has no
	// retry policy. It includes the first attempt.
	DefaultMaxAttempts int

	// RetryDebounce is the default pause between attempts.
	RetryDebounce time.Duration

	// PollInterval paces condition checks and the abort zone watcher.
	PollInterval time.Duration

	// Countdown is the grace period between confirmation and the first
	// step. It is never speed-scaled: the operator needs the full window
	// to reach the abort zone regardless of replay speed. Zero means the
	// default; a negative value disables the countdown entirely.
	Countdown time.Duration

	// AbortZone is the screen rectangle that cancels the session when the
	// pointer enters it.
	AbortZone Rect

	// FixedDelay is the pause after steps that have no post-condition.
	// Wait steps never take it; their recorded duration is the pause.
	FixedDelay time.Duration

	// TypeDelay is the pause between typed characters.
	TypeDelay time.Duration

	// DoubleClickGap is the pause between the clicks of a multi-click.
	DoubleClickGap time.Duration

	// MoveDuration is how long a pointer glide takes, floored at
	// MinMoveDuration after speed scaling.
	MoveDuration    time.Duration
	MinMoveDuration time.Duration
}

// Defaults mirror the recorder's pacing.
const (
	DefaultSpeedMultiplier = 1.0
	DefaultAnchorThreshold = 0.80
)

// WithDefaults returns a copy of the config with zero fields replaced by
// defaults.
func (c Config) WithDefaults() Config {
	if c.SpeedMultiplier <= 0 {
		c.SpeedMultiplier = DefaultSpeedMultiplier
	}
	if c.AnchorThreshold <= 0 {
		c.AnchorThreshold = DefaultAnchorThreshold
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 8 * time.Second
	}
	if c.TextTimeout <= 0 {
		c.TextTimeout = 10 * time.Second
	}
	if c.DefaultMaxAttempts <= 0 {
		c.DefaultMaxAttempts = 1
	}
	if c.RetryDebounce <= 0 {
		c.RetryDebounce = 500 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.Countdown < 0 {
		c.Countdown = 0
	} else if c.Countdown == 0 {
		c.Countdown = 5 * time.Second
	}
	if c.AbortZone.Empty() {
		c.AbortZone = Rect{X: 0, Y: 0, W: 16, H: 16}
	}
	if c.FixedDelay <= 0 {
		c.FixedDelay = 250 * time.Millisecond
	}
	if c.TypeDelay <= 0 {
		c.TypeDelay = 10 * time.Millisecond
	}
	if c.DoubleClickGap <= 0 {
		c.DoubleClickGap = 80 * time.Millisecond
	}
	if c.MoveDuration <= 0 {
		c.MoveDuration = 150 * time.Millisecond
	}
	if c.MinMoveDuration <= 0 {
		c.MinMoveDuration = 50 * time.Millisecond
	}
	return c
}
