package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/petrijr/reenact/pkg/api"
)

// executor composes step actions out of the five input primitives. Every
// primitive failure is wrapped in InjectionError and surfaces immediately:
// the OS may have seen half of the action, so nothing here is swallowed.
type executor struct {
	input api.InputProvider
	cfg   api.Config
}

func newExecutor(input api.InputProvider, cfg api.Config) *executor {
	return &executor{input: input, cfg: cfg}
}

// perform runs one step's action. Pointer steps need the resolved point;
// the other actions ignore it.
func (x *executor) perform(ctx context.Context, step api.Step, res *resolution) error {
	switch step.Action {
	case api.ActionClick, api.ActionDoubleClick:
		return x.click(ctx, step, res.Point)
	case api.ActionType:
		return x.typeText(ctx, step)
	case api.ActionPress:
		return x.press(ctx, step)
	case api.ActionWait:
		return sleepCtx(ctx, x.scaled(step.Wait.Std(), step))
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

func (x *executor) click(ctx context.Context, step api.Step, pt api.Point) error {
	if err := x.input.MoveTo(ctx, pt, x.moveDuration(step)); err != nil {
		return &api.InjectionError{Action: "move_to", Err: err}
	}

	clicks := 1
	if step.Action == api.ActionDoubleClick {
		clicks = 2
		if step.Clicks > 2 {
			clicks = step.Clicks
		}
	}
	button := step.Button
	if button == "" {
		button = api.ButtonLeft
	}

	gap := x.scaled(x.cfg.DoubleClickGap, step)
	for i := 0; i < clicks; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, gap); err != nil {
				return err
			}
		}
		if err := x.input.MouseDown(ctx, button); err != nil {
			return &api.InjectionError{Action: "mouse_down", Err: err}
		}
		if err := x.input.MouseUp(ctx, button); err != nil {
			return &api.InjectionError{Action: "mouse_up", Err: err}
		}
	}
	return nil
}

func (x *executor) typeText(ctx context.Context, step api.Step) error {
	delay := x.scaled(x.cfg.TypeDelay, step)
	first := true
	for _, r := range step.Text {
		if !first {
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
		}
		first = false
		if err := x.typeRune(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (x *executor) typeRune(ctx context.Context, r rune) error {
	key, shifted := runeKey(r)
	if shifted {
		if err := x.keyDown(ctx, "shift"); err != nil {
			return err
		}
	}
	if err := x.keyDown(ctx, key); err != nil {
		if shifted {
			_ = x.input.KeyUp(context.WithoutCancel(ctx), "shift")
		}
		return err
	}
	if err := x.keyUp(ctx, key); err != nil {
		if shifted {
			_ = x.input.KeyUp(context.WithoutCancel(ctx), "shift")
		}
		return err
	}
	if shifted {
		return x.keyUp(ctx, "shift")
	}
	return nil
}

// press holds the chord's modifiers down in canonical order, taps the key,
// and releases in reverse. A failed injection still releases whatever was
// held so no modifier stays stuck down.
func (x *executor) press(ctx context.Context, step api.Step) error {
	if step.Key == nil {
		return nil
	}
	key := normalizeKey(step.Key.Key)
	mods := canonicalModifiers(step.Key.Modifiers)

	var held []string
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = x.input.KeyUp(context.WithoutCancel(ctx), held[i])
		}
	}()

	for _, m := range mods {
		if err := x.keyDown(ctx, m); err != nil {
			return err
		}
		held = append(held, m)
	}
	if err := x.keyDown(ctx, key); err != nil {
		return err
	}
	if err := x.keyUp(ctx, key); err != nil {
		return err
	}
	for len(held) > 0 {
		m := held[len(held)-1]
		if err := x.keyUp(ctx, m); err != nil {
			return err
		}
		held = held[:len(held)-1]
	}
	return nil
}

func (x *executor) keyDown(ctx context.Context, key string) error {
	if err := x.input.KeyDown(ctx, key); err != nil {
		return &api.InjectionError{Action: "key_down", Err: err}
	}
	return nil
}

func (x *executor) keyUp(ctx context.Context, key string) error {
	if err := x.input.KeyUp(ctx, key); err != nil {
		return &api.InjectionError{Action: "key_up", Err: err}
	}
	return nil
}

// sleepCtx pauses for d or until the context is cancelled, whichever comes
// first. Cancellation surfaces as the cancel cause.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}

func (x *executor) scaled(d time.Duration, step api.Step) time.Duration {
	return scaleDelay(d, effectiveSpeed(x.cfg, step))
}

// moveDuration is the recorded glide time divided by speed, floored so the
// pointer never teleports.
func (x *executor) moveDuration(step api.Step) time.Duration {
	d := x.scaled(x.cfg.MoveDuration, step)
	if d < x.cfg.MinMoveDuration {
		d = x.cfg.MinMoveDuration
	}
	return d
}

// effectiveSpeed combines the session speed with the per-step override.
func effectiveSpeed(cfg api.Config, step api.Step) float64 {
	speed := cfg.SpeedMultiplier
	if speed <= 0 {
		speed = api.DefaultSpeedMultiplier
	}
	if step.Speed > 0 {
		speed *= step.Speed
	}
	return speed
}

// scaleDelay divides a recorded delay by the effective speed.
func scaleDelay(d time.Duration, speed float64) time.Duration {
	if d <= 0 {
		return 0
	}
	if speed <= 0 || speed == 1 {
		return d
	}
	return time.Duration(float64(d) / speed)
}

// runeKey maps a typed character onto a key name, splitting out the shift
// modifier for uppercase letters.
func runeKey(r rune) (string, bool) {
	switch r {
	case '\n', '\r':
		return "enter", false
	case '\t':
		return "tab", false
	case ' ':
		return "space", false
	}
	if unicode.IsUpper(r) {
		return string(unicode.ToLower(r)), true
	}
	return string(r), false
}

// keyAliases folds the recorder's key spellings onto normalized names.
var keyAliases = map[string]string{
	"return":   "enter",
	"esc":      "escape",
	"control":  "ctrl",
	"ctl":      "ctrl",
	"cmd":      "meta",
	"command":  "meta",
	"win":      "meta",
	"super":    "meta",
	"option":   "alt",
	"del":      "delete",
	"ins":      "insert",
	"pgup":     "pageup",
	"pgdn":     "pagedown",
	"spacebar": "space",
}

func normalizeKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := keyAliases[name]; ok {
		return alias
	}
	return name
}

// modifierOrder is the canonical dispatch order; releases run in reverse.
var modifierOrder = []string{"ctrl", "alt", "shift", "meta"}

// canonicalModifiers normalizes modifier names, drops duplicates and sorts
// the known ones into canonical order. Unknown names keep their normalized
// spelling and go last in input order.
func canonicalModifiers(mods []string) []string {
	if len(mods) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(mods))
	var extras []string
	for _, m := range mods {
		m = normalizeKey(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		known := false
		for _, want := range modifierOrder {
			if m == want {
				known = true
				break
			}
		}
		if !known {
			extras = append(extras, m)
		}
	}

	var out []string
	for _, want := range modifierOrder {
		if seen[want] {
			out = append(out, want)
		}
	}
	return append(out, extras...)
}
