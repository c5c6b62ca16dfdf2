package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/petrijr/reenact/internal/vision"
	"github.com/petrijr/reenact/pkg/api"
)

// resolution is where a pointer step will land and which target tier
// produced the point.
type resolution struct {
	Point api.Point
	Tier  api.ResolveTier

	// Score is the normalized match score, anchor tier only.
	Score float64
}

func (r resolution) describe() string {
	switch r.Tier {
	case api.TierAnchor:
		return fmt.Sprintf("anchor (%d, %d) score %.2f", r.Point.X, r.Point.Y, r.Score)
	case api.TierRelative:
		return fmt.Sprintf("window (%d, %d)", r.Point.X, r.Point.Y)
	default:
		return fmt.Sprintf("screen (%d, %d)", r.Point.X, r.Point.Y)
	}
}

// anchorHit is a template match mapped to pointer coordinates.
type anchorHit struct {
	Point api.Point
	Score float64
}

// rawMatch is the outcome of one template search before any threshold is
// applied. Thresholds vary per step, so the memo caches these instead of
// found/not-found verdicts.
type rawMatch struct {
	point  api.Point
	score  float64
	usable bool
}

// resolver turns a step target into screen coordinates. Tiers are tried in
// order: template match on the live screen, then the recorded position
// inside the active window, then the recorded absolute coordinates clamped
// to the current screen. The same anchor search also backs the condition
// waiter.
type resolver struct {
	screen    api.ScreenProvider
	window    api.WindowInfoProvider
	anchors   *vision.AnchorCache
	threshold float64

	// Frame memo. UI screens sit still most of the time, so consecutive
	// captures are often byte-for-byte identical; when the fingerprint
	// matches the previous frame exactly, the per-anchor search result is
	// reused instead of re-running the template search.
	mu        sync.Mutex
	frameHash uint64
	searches  map[string]rawMatch
}

func newResolver(screen api.ScreenProvider, window api.WindowInfoProvider, anchors *vision.AnchorCache, threshold float64) *resolver {
	if threshold <= 0 {
		threshold = api.DefaultAnchorThreshold
	}
	return &resolver{
		screen:    screen,
		window:    window,
		anchors:   anchors,
		threshold: threshold,
		searches:  make(map[string]rawMatch),
	}
}

// resolve finds the point for a pointer step. All tiers failing is a soft
// failure wrapped in ResolutionError; the step's retry policy decides what
// happens next.
func (r *resolver) resolve(ctx context.Context, step api.Step) (resolution, error) {
	var tried []string

	if ref := step.Target.Anchor; ref != nil {
		if err := ctx.Err(); err != nil {
			return resolution{}, err
		}
		hit, found, err := r.findAnchor(ref)
		switch {
		case err != nil:
			tried = append(tried, fmt.Sprintf("anchor %q: %v", ref.Image, err))
		case found:
			return resolution{Point: hit.Point, Tier: api.TierAnchor, Score: hit.Score}, nil
		case hit.Score > 0:
			tried = append(tried, fmt.Sprintf("anchor %q: best score %.2f below threshold %.2f",
				ref.Image, hit.Score, r.thresholdFor(ref)))
		default:
			tried = append(tried, fmt.Sprintf("anchor %q: no usable match", ref.Image))
		}
	}

	if rel := step.Target.Relative; rel != nil {
		if err := ctx.Err(); err != nil {
			return resolution{}, err
		}
		box, detail := r.relativeBox()
		if detail != "" {
			tried = append(tried, detail)
		} else {
			pt := api.Point{
				X: box.X + int(math.Round(rel.X*float64(box.W))),
				Y: box.Y + int(math.Round(rel.Y*float64(box.H))),
			}
			return resolution{Point: box.Clamp(pt), Tier: api.TierRelative}, nil
		}
	}

	if abs := step.Target.Absolute; abs != nil {
		if err := ctx.Err(); err != nil {
			return resolution{}, err
		}
		bounds, err := r.screen.Bounds()
		if err != nil {
			tried = append(tried, fmt.Sprintf("absolute: screen bounds: %v", err))
		} else {
			return resolution{Point: bounds.Clamp(*abs), Tier: api.TierAbsolute}, nil
		}
	}

	return resolution{}, &api.ResolutionError{StepID: step.ID, Detail: strings.Join(tried, "; ")}
}

// relativeBox picks the box relative coordinates are measured against: the
// active window when the provider reports a usable one, the full screen
// otherwise.
func (r *resolver) relativeBox() (api.Rect, string) {
	if r.window != nil {
		box, err := r.window.ActiveWindowBounds()
		if err == nil && !box.Empty() {
			return box, ""
		}
		// A headless window manager or a borderless fullscreen app
		// reports no usable box; fall through to screen bounds.
	}
	bounds, err := r.screen.Bounds()
	if err != nil {
		return api.Rect{}, fmt.Sprintf("relative: screen bounds: %v", err)
	}
	return bounds, ""
}

func (r *resolver) thresholdFor(ref *api.AnchorRef) float64 {
	if ref.Threshold > 0 {
		return ref.Threshold
	}
	return r.threshold
}

// findAnchor captures the screen (or the anchor's recorded region) and
// looks for the template. The returned point is the template center in
// pointer units: capture pixels map back through the ratio of the logical
// region size to the capture size, so high-DPI screens land where the
// operator sees the anchor. On a miss the returned hit carries the best
// score for diagnostics.
func (r *resolver) findAnchor(ref *api.AnchorRef) (anchorHit, bool, error) {
	raw, err := r.search(ref)
	if err != nil {
		return anchorHit{}, false, err
	}
	if !raw.usable {
		return anchorHit{}, false, nil
	}

	hit := anchorHit{Point: raw.point, Score: raw.score}
	return hit, raw.score >= r.thresholdFor(ref), nil
}

// anchorHashTolerance bounds how far a library template may drift from the
// perceptual hash the recorder stored for it. Re-encodes and color-space
// conversions stay within a few bits; a replaced or edited image lands far
// beyond.
const anchorHashTolerance = 12

func (r *resolver) search(ref *api.AnchorRef) (rawMatch, error) {
	anchor, err := r.anchors.Get(ref.Image)
	if err != nil {
		return rawMatch{}, err
	}

	if ref.Hash != "" {
		recorded, err := vision.ParseHash(ref.Hash)
		if err != nil {
			return rawMatch{}, fmt.Errorf("anchor %q: recorded hash: %w", ref.Image, err)
		}
		if d := vision.HashDistance(recorded, anchor.Hash); d > anchorHashTolerance {
			return rawMatch{}, fmt.Errorf("anchor %q does not match its recording (hash distance %d)", ref.Image, d)
		}
	}

	bounds, err := r.screen.Bounds()
	if err != nil {
		return rawMatch{}, fmt.Errorf("screen bounds: %w", err)
	}

	img, err := r.screen.Capture(ref.Region)
	if err != nil {
		return rawMatch{}, fmt.Errorf("capture: %w", err)
	}

	origin := api.Point{X: bounds.X, Y: bounds.Y}
	logicalW, logicalH := bounds.W, bounds.H
	if reg := ref.Region; reg != nil {
		origin = api.Point{X: reg.X, Y: reg.Y}
		logicalW, logicalH = reg.W, reg.H
	}

	fp, fpErr := vision.Fingerprint(img)
	if fpErr == nil {
		if raw, ok := r.memoLookup(fp, ref.Image); ok {
			return raw, nil
		}
	}

	capW := img.Bounds().Dx()
	capH := img.Bounds().Dy()
	if capW == 0 || capH == 0 {
		return rawMatch{}, fmt.Errorf("capture is empty")
	}

	var raw rawMatch
	if m, ok := vision.MatchTemplate(vision.ToGray(img), anchor.Gray); ok {
		cx := float64(m.TopLeft.X) + float64(anchor.Width())/2
		cy := float64(m.TopLeft.Y) + float64(anchor.Height())/2
		pt := api.Point{
			X: origin.X + int(math.Round(cx*float64(logicalW)/float64(capW))),
			Y: origin.Y + int(math.Round(cy*float64(logicalH)/float64(capH))),
		}
		raw = rawMatch{point: bounds.Clamp(pt), score: m.Score, usable: true}
	}

	if fpErr == nil {
		r.memoStore(fp, ref.Image, raw)
	}
	return raw, nil
}

func (r *resolver) memoLookup(fp uint64, name string) (rawMatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fp != r.frameHash {
		return rawMatch{}, false
	}
	raw, ok := r.searches[name]
	return raw, ok
}

func (r *resolver) memoStore(fp uint64, name string, raw rawMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fp != r.frameHash {
		r.frameHash = fp
		r.searches = map[string]rawMatch{name: raw}
		return
	}
	r.searches[name] = raw
}
