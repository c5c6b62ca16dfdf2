package testutil

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/petrijr/reenact/pkg/api"
)

// Fake providers for engine tests: deterministic, injectable failures,
// every primitive recorded.

// FakeScreen serves a scripted sequence of frames. Each Capture advances
// to the next frame; the last one is sticky. Frames are assumed to be
// 1:1 with pointer units unless the test deliberately sizes them larger.
type FakeScreen struct {
	mu       sync.Mutex
	bounds   api.Rect
	frames   []image.Image
	idx      int
	captures int
	err      error
}

var _ api.ScreenProvider = (*FakeScreen)(nil)

func NewFakeScreen(bounds api.Rect, frames ...image.Image) *FakeScreen {
	return &FakeScreen{bounds: bounds, frames: frames}
}

func (s *FakeScreen) Bounds() (api.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return api.Rect{}, s.err
	}
	return s.bounds, nil
}

func (s *FakeScreen) Capture(region *api.Rect) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captures++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.frames) == 0 {
		return image.NewGray(image.Rect(0, 0, s.bounds.W, s.bounds.H)), nil
	}

	frame := s.frames[s.idx]
	if s.idx < len(s.frames)-1 {
		s.idx++
	}

	if region == nil {
		return frame, nil
	}

	// Crop in frame pixels, assuming the frame is exactly bounds-sized.
	crop := image.Rect(
		region.X-s.bounds.X,
		region.Y-s.bounds.Y,
		region.X-s.bounds.X+region.W,
		region.Y-s.bounds.Y+region.H,
	).Intersect(frame.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), frame, crop.Min, draw.Src)
	return out, nil
}

// Push appends frames to the script.
func (s *FakeScreen) Push(frames ...image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frames...)
}

// Captures reports how many times Capture was called.
func (s *FakeScreen) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// SetError makes all subsequent calls fail with err (nil clears).
func (s *FakeScreen) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// InputOp is one recorded input primitive.
type InputOp struct {
	Kind   string // "move_to", "mouse_down", "mouse_up", "key_down", "key_up"
	Point  api.Point
	Button api.MouseButton
	Key    string
	Glide  time.Duration
}

// FakeInput records every primitive and can fail selected primitives with
// queued one-shot errors.
type FakeInput struct {
	mu       sync.Mutex
	ops      []InputOp
	cursor   api.Point
	failures map[string][]error
}

var _ api.InputProvider = (*FakeInput)(nil)

func NewFakeInput() *FakeInput {
	return &FakeInput{failures: make(map[string][]error)}
}

// FailNext queues a one-shot error for the named primitive kind; queued
// errors pop in order.
func (f *FakeInput) FailNext(kind string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[kind] = append(f.failures[kind], err)
}

// SetCursor places the fake pointer, as read by CursorPosition.
func (f *FakeInput) SetCursor(pt api.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = pt
}

// Ops returns a snapshot of all recorded primitives.
func (f *FakeInput) Ops() []InputOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]InputOp, len(f.ops))
	copy(out, f.ops)
	return out
}

// OpsOfKind returns the recorded primitives of one kind, in order.
func (f *FakeInput) OpsOfKind(kind string) []InputOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []InputOp
	for _, op := range f.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func (f *FakeInput) record(op InputOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if queue := f.failures[op.Kind]; len(queue) > 0 {
		err := queue[0]
		f.failures[op.Kind] = queue[1:]
		return err
	}

	f.ops = append(f.ops, op)
	if op.Kind == "move_to" {
		f.cursor = op.Point
	}
	return nil
}

func (f *FakeInput) MoveTo(ctx context.Context, p api.Point, d time.Duration) error {
	return f.record(InputOp{Kind: "move_to", Point: p, Glide: d})
}

func (f *FakeInput) MouseDown(ctx context.Context, button api.MouseButton) error {
	return f.record(InputOp{Kind: "mouse_down", Button: button})
}

func (f *FakeInput) MouseUp(ctx context.Context, button api.MouseButton) error {
	return f.record(InputOp{Kind: "mouse_up", Button: button})
}

func (f *FakeInput) KeyDown(ctx context.Context, key string) error {
	return f.record(InputOp{Kind: "key_down", Key: key})
}

func (f *FakeInput) KeyUp(ctx context.Context, key string) error {
	return f.record(InputOp{Kind: "key_up", Key: key})
}

func (f *FakeInput) CursorPosition() (api.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, nil
}

// FakeText serves a scripted sequence of recognition results; the last one
// is sticky.
type FakeText struct {
	mu    sync.Mutex
	texts []string
	idx   int
	calls int
	err   error
}

var _ api.TextRecognizer = (*FakeText)(nil)

func NewFakeText(texts ...string) *FakeText {
	return &FakeText{texts: texts}
}

func (f *FakeText) Recognize(ctx context.Context, img image.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.texts) == 0 {
		return "", nil
	}
	text := f.texts[f.idx]
	if f.idx < len(f.texts)-1 {
		f.idx++
	}
	return text, nil
}

func (f *FakeText) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeText) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FakeWindow reports a settable active window.
type FakeWindow struct {
	mu     sync.Mutex
	title  string
	bounds api.Rect
	err    error
}

var _ api.WindowInfoProvider = (*FakeWindow)(nil)

func NewFakeWindow(title string, bounds api.Rect) *FakeWindow {
	return &FakeWindow{title: title, bounds: bounds}
}

func (f *FakeWindow) ActiveWindowTitle() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}

func (f *FakeWindow) ActiveWindowBounds() (api.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return api.Rect{}, f.err
	}
	return f.bounds, nil
}

func (f *FakeWindow) SetTitle(title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.title = title
}

func (f *FakeWindow) SetBounds(bounds api.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bounds = bounds
}

func (f *FakeWindow) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FakeProcess answers process_running checks from a settable table.
type FakeProcess struct {
	mu      sync.Mutex
	running map[string]bool
	err     error
}

var _ api.ProcessInfoProvider = (*FakeProcess)(nil)

func NewFakeProcess(running ...string) *FakeProcess {
	table := make(map[string]bool, len(running))
	for _, name := range running {
		table[name] = true
	}
	return &FakeProcess{running: table}
}

func (f *FakeProcess) ProcessRunning(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.running[name], nil
}

func (f *FakeProcess) SetRunning(name string, running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[name] = running
}

func (f *FakeProcess) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
