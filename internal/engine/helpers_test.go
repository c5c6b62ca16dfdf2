package engine

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petrijr/reenact/internal/testutil"
	"github.com/petrijr/reenact/pkg/api"
)

// Shared fixtures for the engine tests: deterministic screen frames with a
// planted pattern, an on-disk anchor library, and a config with all delays
// shrunk so the suite stays fast.

// texturedFrame builds a deterministic non-uniform frame so template
// matching has signal to work with.
func texturedFrame(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*g.Stride+x] = uint8((x*31 + y*17) % 251)
		}
	}
	return g
}

// plantPattern draws a 4px checkerboard into g at (x0, y0).
func plantPattern(g *image.Gray, x0, y0, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x/4+y/4)%2 == 0 {
				v = 255
			}
			g.Pix[(y0+y)*g.Stride+x0+x] = v
		}
	}
}

// patternTemplate is the same checkerboard as a standalone template.
func patternTemplate(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	plantPattern(g, 0, 0, w, h)
	return g
}

// writeAnchor saves img as a PNG into dir and returns its bare file name.
func writeAnchor(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create anchor: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode anchor: %v", err)
	}
	return name
}

// fastConfig shrinks every delay so tests run in milliseconds. The countdown
// is disabled entirely; polling stays fast but non-zero so cancellation
// latency is still exercised.
func fastConfig() api.Config {
	return api.Config{
		DefaultTimeout:  200 * time.Millisecond,
		TextTimeout:     200 * time.Millisecond,
		RetryDebounce:   time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		Countdown:       -1,
		FixedDelay:      time.Millisecond,
		TypeDelay:       time.Microsecond,
		DoubleClickGap:  time.Microsecond,
		MoveDuration:    time.Millisecond,
		MinMoveDuration: time.Microsecond,
	}
}

// testRig bundles an engine with its fakes for session-level tests.
type testRig struct {
	eng    api.Engine
	screen *testutil.FakeScreen
	input  *testutil.FakeInput
	text   *testutil.FakeText
	window *testutil.FakeWindow
	proc   *testutil.FakeProcess
}

// newTestRig builds an in-memory engine over fake providers. The screen
// serves a single textured frame with the "ok-button.png" pattern planted
// at (40, 24); the matching 16x16 anchor is written into a temp library.
func newTestRig(t *testing.T, cfg api.Config) *testRig {
	t.Helper()

	frame := texturedFrame(200, 120)
	plantPattern(frame, 40, 24, 16, 16)

	anchorDir := t.TempDir()
	writeAnchor(t, anchorDir, "ok-button.png", patternTemplate(16, 16))

	screen := testutil.NewFakeScreen(api.Rect{X: 0, Y: 0, W: 200, H: 120}, frame)
	input := testutil.NewFakeInput()
	input.SetCursor(api.Point{X: 100, Y: 60})
	text := testutil.NewFakeText()
	window := testutil.NewFakeWindow("Invoices - LedgerPro", api.Rect{X: 20, Y: 10, W: 160, H: 100})
	proc := testutil.NewFakeProcess("ledgerpro")

	eng := NewEngineWithConfig(Config{
		Providers: api.Providers{
			Screen:  screen,
			Input:   input,
			Text:    text,
			Window:  window,
			Process: proc,
		},
		Replay:    cfg,
		AnchorDir: anchorDir,
	})

	return &testRig{eng: eng, screen: screen, input: input, text: text, window: window, proc: proc}
}

// confirmAndRun drives a session through preview and run.
func (r *testRig) confirmAndRun(t *testing.T, name string) (*api.Summary, error) {
	t.Helper()

	session, err := r.eng.NewSession(name)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if _, err := session.Preview(context.Background()); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	return session.Run(context.Background())
}
