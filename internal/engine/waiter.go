package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// waiter polls a step's post-condition until it holds or its timeout
// elapses. Steps without a condition get a short fixed pause instead, so
// the replay never outruns the application it is driving. Wait steps are
// the exception: their pause is the action itself.
type waiter struct {
	resolver *resolver
	screen   api.ScreenProvider
	text     api.TextRecognizer
	window   api.WindowInfoProvider
	process  api.ProcessInfoProvider
	cfg      api.Config
}

func newWaiter(res *resolver, providers api.Providers, cfg api.Config) *waiter {
	return &waiter{
		resolver: res,
		screen:   providers.Screen,
		text:     providers.Text,
		window:   providers.Window,
		process:  providers.Process,
		cfg:      cfg,
	}
}

// await blocks until the step's post-condition holds. The poll interval is
// never speed-scaled: conditions and cancellation stay equally responsive
// at any replay speed. Timing out is a soft failure wrapped around
// ErrPostConditionTimeout.
func (w *waiter) await(ctx context.Context, step api.Step) error {
	cond := step.Post
	if cond == nil {
		if step.Action == api.ActionWait {
			// The executor already slept the recorded duration; the pause
			// is the action itself.
			return nil
		}
		return sleepCtx(ctx, scaleDelay(w.cfg.FixedDelay, effectiveSpeed(w.cfg, step)))
	}

	if err := w.supported(*cond); err != nil {
		return err
	}

	deadline := time.Now().Add(w.timeoutFor(*cond))
	var lastErr error
	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		ok, err := w.check(ctx, *cond)
		if err != nil {
			// Transient by assumption: a capture or recognizer hiccup
			// should not fail the wait while time remains.
			lastErr = err
		} else if ok {
			return nil
		}

		if !time.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("%s: %w (last check: %v)", cond.Describe(), api.ErrPostConditionTimeout, lastErr)
			}
			return fmt.Errorf("%s: %w", cond.Describe(), api.ErrPostConditionTimeout)
		}
		if err := sleepCtx(ctx, w.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// timeoutFor picks the condition's own timeout when it carries one.
// Recognition is the slowest check, so bare text_appears conditions get the
// larger default.
func (w *waiter) timeoutFor(cond api.PostCondition) time.Duration {
	if d := cond.Timeout.Std(); d > 0 {
		return d
	}
	if cond.Kind == api.CondTextAppears {
		return w.cfg.TextTimeout
	}
	return w.cfg.DefaultTimeout
}

// supported verifies the providers this condition needs are present.
func (w *waiter) supported(cond api.PostCondition) error {
	missing := ""
	switch cond.Kind {
	case api.CondAnchorAppears, api.CondAnchorGone:
		if w.screen == nil {
			missing = "screen provider"
		}
	case api.CondTextAppears:
		if w.screen == nil {
			missing = "screen provider"
		} else if w.text == nil {
			missing = "text recognizer"
		}
	case api.CondWindowTitle:
		if w.window == nil {
			missing = "window info provider"
		}
	case api.CondProcessRunning:
		if w.process == nil {
			missing = "process info provider"
		}
	}
	if missing == "" {
		return nil
	}
	return fmt.Errorf("%s needs a %s: %w", cond.Describe(), missing, api.ErrWorkflowRequiresProvider)
}

func (w *waiter) check(ctx context.Context, cond api.PostCondition) (bool, error) {
	switch cond.Kind {
	case api.CondAnchorAppears:
		_, found, err := w.resolver.findAnchor(cond.Anchor)
		return found, err

	case api.CondAnchorGone:
		_, found, err := w.resolver.findAnchor(cond.Anchor)
		if err != nil {
			return false, err
		}
		return !found, nil

	case api.CondTextAppears:
		img, err := w.screen.Capture(cond.Region)
		if err != nil {
			return false, err
		}
		got, err := w.text.Recognize(ctx, img)
		if err != nil {
			return false, err
		}
		return containsFold(got, cond.Text), nil

	case api.CondWindowTitle:
		title, err := w.window.ActiveWindowTitle()
		if err != nil {
			return false, err
		}
		want := strings.TrimSpace(cond.Title)
		if w.cfg.ExactWindowTitle {
			return strings.EqualFold(strings.TrimSpace(title), want), nil
		}
		return containsFold(title, want), nil

	case api.CondProcessRunning:
		return w.process.ProcessRunning(cond.Process)

	default:
		return false, fmt.Errorf("unknown condition kind %q", cond.Kind)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
