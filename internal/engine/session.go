package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petrijr/reenact/internal/persistence"
	"github.com/petrijr/reenact/pkg/api"
)

// runGate serializes live runs. There is one pointer and one keyboard, so
// at most one session may be driving them at a time.
type runGate struct {
	ch chan struct{}
}

func newRunGate() *runGate { return &runGate{ch: make(chan struct{}, 1)} }

func (g *runGate) acquire() bool {
	select {
	case g.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *runGate) release() { <-g.ch }

type sessionDeps struct {
	resolver *resolver
	executor *executor
	waiter   *waiter
	input    api.InputProvider
	sessions persistence.SessionStore
	events   persistence.EventStore
	observer api.Observer
	gate     *runGate
}

// session drives one replay of one workflow through its lifecycle:
// PENDING -> PREVIEWING -> AWAITING_CONFIRMATION -> RUNNING -> terminal.
// Nothing moves before Preview has shown the plan and Run has been called
// as the explicit confirmation.
type session struct {
	id  string
	wf  api.Workflow
	cfg api.Config

	resolver *resolver
	executor *executor
	waiter   *waiter
	input    api.InputProvider

	sessions persistence.SessionStore
	events   persistence.EventStore
	observer api.Observer
	gate     *runGate

	mu      sync.Mutex
	status  api.SessionStatus
	summary *api.Summary
	cancel  context.CancelCauseFunc

	seq       atomic.Int64
	stream    chan api.ReplayEvent
	closeOnce sync.Once
}

// Ensure session implements the interface.
var _ api.Session = (*session)(nil)

func newSession(id string, wf api.Workflow, cfg api.Config, deps sessionDeps) *session {
	return &session{
		id:       id,
		wf:       wf,
		cfg:      cfg,
		resolver: deps.resolver,
		executor: deps.executor,
		waiter:   deps.waiter,
		input:    deps.input,
		sessions: deps.sessions,
		events:   deps.events,
		observer: deps.observer,
		gate:     deps.gate,
		status:   api.SessionPending,
		stream:   make(chan api.ReplayEvent, eventCapacity(wf, cfg)),
	}
}

// eventCapacity sizes the stream for the session's worst case, so the
// replay loop never blocks on a slow reader: the session-level events plus
// start, resolve, retry and outcome events for every allowed attempt of
// every step.
func eventCapacity(wf api.Workflow, cfg api.Config) int {
	n := 8
	for _, step := range wf.Steps {
		n += 2*maxAttempts(step, cfg) + 3
	}
	return n
}

func (s *session) ID() string           { return s.id }
func (s *session) WorkflowName() string { return s.wf.Name }

func (s *session) Status() api.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *session) Events() <-chan api.ReplayEvent { return s.stream }

func (s *session) Summary() *api.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil
	}
	cp := *s.summary
	cp.Results = append([]api.StepResult(nil), s.summary.Results...)
	return &cp
}

func (s *session) Preview(ctx context.Context) (*api.PreviewReport, error) {
	s.mu.Lock()
	switch s.status {
	case api.SessionPending, api.SessionAwaitingConfirmation:
	default:
		status := s.status
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot preview in status %s", api.ErrSessionState, status)
	}
	s.status = api.SessionPreviewing
	s.mu.Unlock()

	report := buildPreview(s.wf, s.cfg)

	s.mu.Lock()
	// Cancel may have won the race while the report was being built.
	cancelled := s.status == api.SessionCancelled
	if !cancelled {
		s.status = api.SessionAwaitingConfirmation
	}
	s.mu.Unlock()
	if cancelled {
		return nil, api.ErrCancelled
	}

	s.emit(ctx, api.ReplayEvent{
		Type:   api.EventSessionPreviewed,
		Detail: fmt.Sprintf("%d steps", len(report.Lines)),
	})
	return report, nil
}

// Cancel requests cancellation. Before Run it finalizes the session on the
// spot; while running it cancels the run context and the loop winds down
// within one poll interval.
func (s *session) Cancel() {
	s.mu.Lock()
	if s.status.Terminal() {
		s.mu.Unlock()
		return
	}
	if cancel := s.cancel; cancel != nil {
		s.mu.Unlock()
		cancel(api.ErrCancelled)
		return
	}
	s.status = api.SessionCancelled
	s.mu.Unlock()

	s.emit(context.Background(), api.ReplayEvent{
		Type:   api.EventSessionCancelled,
		Detail: "cancelled before run",
	})
	s.closeStream()
}

// Run is the operator's explicit confirmation. It counts down, executes
// the steps and always settles the session in a terminal state with a
// summary, even when cancelled mid-step.
func (s *session) Run(ctx context.Context) (*api.Summary, error) {
	s.mu.Lock()
	if s.status != api.SessionAwaitingConfirmation {
		status := s.status
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: run requires a previewed session awaiting confirmation (status %s)", api.ErrSessionState, status)
	}
	if s.gate != nil && !s.gate.acquire() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: another session is running", api.ErrSessionState)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	s.cancel = cancel
	s.status = api.SessionRunning
	sum := &api.Summary{
		ID:        s.id,
		Workflow:  s.wf.Name,
		Status:    api.SessionRunning,
		StartedAt: time.Now(),
	}
	s.summary = sum
	s.mu.Unlock()

	if s.gate != nil {
		defer s.gate.release()
	}

	// The watcher exits on context cancellation, so cancel must run
	// before the wait.
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel(nil)

	s.emit(runCtx, api.ReplayEvent{Type: api.EventSessionConfirmed})

	if err := s.sessions.SaveSession(sum); err != nil {
		// Nothing has moved yet; refuse to drive input without a
		// working archive.
		return s.finalize(runCtx, fmt.Errorf("archive session: %w", err))
	}

	s.observer.OnSessionStart(runCtx, sum)

	if s.input != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchAbortZone(runCtx, cancel)
		}()
	}

	if err := s.countdown(runCtx); err != nil {
		return s.finalize(runCtx, err)
	}

	s.emit(runCtx, api.ReplayEvent{Type: api.EventSessionStarted})

	return s.finalize(runCtx, s.runSteps(runCtx, sum))
}

// countdown gives the operator a last chance to reach the abort zone
// before the pointer starts moving. Deliberately not speed-scaled.
func (s *session) countdown(ctx context.Context) error {
	if s.cfg.Countdown <= 0 {
		return nil
	}
	s.emit(ctx, api.ReplayEvent{
		Type:   api.EventSessionCountdown,
		Detail: fmt.Sprintf("starting in %s", s.cfg.Countdown),
	})
	return sleepCtx(ctx, s.cfg.Countdown)
}

// watchAbortZone polls the pointer and cancels the session as soon as it
// enters the abort zone. Reaction is bounded by one poll interval.
func (s *session) watchAbortZone(ctx context.Context, cancel context.CancelCauseFunc) {
	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pt, err := s.input.CursorPosition()
			if err != nil {
				continue
			}
			if s.cfg.AbortZone.Contains(pt) {
				cancel(fmt.Errorf("pointer in abort zone (%d, %d): %w", pt.X, pt.Y, api.ErrCancelled))
				return
			}
		}
	}
}

func (s *session) runSteps(ctx context.Context, sum *api.Summary) error {
	for i, step := range s.wf.Steps {
		if ctx.Err() != nil {
			s.skipRemaining(ctx, sum, i, "session cancelled")
			return context.Cause(ctx)
		}

		result, err := s.runStep(ctx, step)
		if isCancellation(err) {
			// The interrupted attempt never concluded; this step and the
			// rest are recorded as skipped.
			s.skipRemaining(ctx, sum, i, "session cancelled")
			return err
		}

		s.appendResult(sum, result)

		if err != nil {
			s.skipRemaining(ctx, sum, i+1, fmt.Sprintf("aborted by step %d", step.ID))
			return err
		}
	}
	return nil
}

// runStep drives one step through its attempt budget. It returns the
// step's result plus nil (succeeded, or failed-and-tolerated), a
// FatalStepError (failed on an abort step), or the cancellation cause.
func (s *session) runStep(ctx context.Context, step api.Step) (api.StepResult, error) {
	result := api.StepResult{
		StepID:    step.ID,
		Action:    step.Action,
		StartedAt: time.Now(),
	}

	attempts := maxAttempts(step, s.cfg)
	pointer := step.Action == api.ActionClick || step.Action == api.ActionDoubleClick

	s.emit(ctx, api.ReplayEvent{
		Type:    api.EventStepStarted,
		StepID:  step.ID,
		Attempt: 1,
		Detail:  step.Describe(),
	})

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return result, context.Cause(ctx)
		}

		started := time.Now()
		s.observer.OnStepStart(ctx, s.summary, step, attempt)

		err := s.attempt(ctx, step, pointer, &result)
		duration := time.Since(started)

		if err == nil {
			result.Status = api.StepSucceeded
			result.Attempts = attempt
			result.FinishedAt = time.Now()
			s.observer.OnStepEnd(ctx, s.summary, step, result, duration)
			s.emit(ctx, api.ReplayEvent{
				Type:    api.EventStepSucceeded,
				StepID:  step.ID,
				Attempt: attempt,
				Detail:  resultDetail(result),
			})
			return result, nil
		}
		if isCancellation(err) {
			return result, err
		}

		if attempt < attempts && s.retryable(step, err) {
			s.emit(ctx, api.ReplayEvent{
				Type:    api.EventStepRetrying,
				StepID:  step.ID,
				Attempt: attempt + 1,
				Detail:  err.Error(),
			})
			if serr := sleepCtx(ctx, s.debounce(step)); serr != nil {
				return result, serr
			}
			continue
		}

		result.Status = api.StepFailed
		result.Attempts = attempt
		result.Reason = err.Error()
		result.FinishedAt = time.Now()
		s.observer.OnStepEnd(ctx, s.summary, step, result, duration)
		s.emit(ctx, api.ReplayEvent{
			Type:    api.EventStepFailed,
			StepID:  step.ID,
			Attempt: attempt,
			Detail:  err.Error(),
		})

		if step.OnFailure == api.FailureAbort {
			return result, &api.FatalStepError{StepID: step.ID, Err: err}
		}
		return result, nil
	}
}

// attempt performs one resolve-act-await cycle, recording the resolution
// on the result as it goes.
func (s *session) attempt(ctx context.Context, step api.Step, pointer bool, result *api.StepResult) error {
	var res resolution
	if pointer {
		var err error
		res, err = s.resolver.resolve(ctx, step)
		if err != nil {
			return err
		}
		pt := res.Point
		result.Tier = res.Tier
		result.Point = &pt
		s.emit(ctx, api.ReplayEvent{
			Type:   api.EventStepResolved,
			StepID: step.ID,
			Detail: res.describe(),
		})
	}

	if err := s.executor.perform(ctx, step, &res); err != nil {
		return err
	}

	return s.waiter.await(ctx, step)
}

// retryable says whether the step's policy may retry after err. Resolution
// misses and condition timeouts are transient; injection errors touched
// the OS and are retried only when the step opts in.
func (s *session) retryable(step api.Step, err error) bool {
	if api.IsInjectionError(err) {
		return step.Retry != nil && step.Retry.RetryInjection
	}
	return api.IsResolutionError(err) || errors.Is(err, api.ErrPostConditionTimeout)
}

// debounce is the pause between attempts, speed-scaled like every other
// recorded delay.
func (s *session) debounce(step api.Step) time.Duration {
	d := s.cfg.RetryDebounce
	if step.Retry != nil && step.Retry.Debounce > 0 {
		d = step.Retry.Debounce.Std()
	}
	return scaleDelay(d, effectiveSpeed(s.cfg, step))
}

func (s *session) skipRemaining(ctx context.Context, sum *api.Summary, from int, reason string) {
	for _, step := range s.wf.Steps[from:] {
		s.appendResult(sum, api.StepResult{
			StepID: step.ID,
			Action: step.Action,
			Status: api.StepSkipped,
			Reason: reason,
		})
		s.emit(ctx, api.ReplayEvent{
			Type:   api.EventStepSkipped,
			StepID: step.ID,
			Detail: reason,
		})
	}
}

func (s *session) appendResult(sum *api.Summary, res api.StepResult) {
	s.mu.Lock()
	sum.Results = append(sum.Results, res)
	s.mu.Unlock()

	// Update after every step so a crash still leaves the partial record.
	_ = s.sessions.UpdateSession(sum)
}

// finalize settles the terminal state, archives the summary, emits the
// terminal event and closes the stream. The returned error is nil for a
// completed run, the cancellation cause, or the aborting failure.
func (s *session) finalize(ctx context.Context, err error) (*api.Summary, error) {
	s.mu.Lock()
	sum := s.summary
	switch {
	case err == nil:
		s.status = api.SessionCompleted
	case isCancellation(err):
		s.status = api.SessionCancelled
	default:
		s.status = api.SessionAborted
		sum.Error = err.Error()
	}
	sum.Status = s.status
	sum.FinishedAt = time.Now()
	s.cancel = nil
	s.mu.Unlock()

	_ = s.sessions.UpdateSession(sum)
	s.observer.OnSessionEnd(ctx, sum, err)

	ev := api.ReplayEvent{}
	switch sum.Status {
	case api.SessionCompleted:
		ev.Type = api.EventSessionCompleted
		ev.Detail = fmt.Sprintf("%d succeeded, %d failed, %d skipped",
			sum.Succeeded(), sum.Failed(), sum.Skipped())
	case api.SessionCancelled:
		ev.Type = api.EventSessionCancelled
		if err != nil {
			ev.Detail = err.Error()
		}
	default:
		ev.Type = api.EventSessionAborted
		ev.Detail = sum.Error
	}
	s.emit(ctx, ev)
	s.closeStream()

	return s.Summary(), err
}

// emit appends the event to the archive and the live stream. The stream is
// buffered for the session's worst case; should it ever fill, the event is
// dropped rather than stalling the replay.
func (s *session) emit(ctx context.Context, ev api.ReplayEvent) {
	ev.SessionID = s.id
	ev.At = time.Now()
	ev.Seq = int(s.seq.Add(1)) - 1
	if ev.Workflow == "" {
		ev.Workflow = s.wf.Name
	}

	if s.events != nil {
		_ = s.events.AppendEvent(ctx, ev)
	}

	select {
	case s.stream <- ev:
	default:
	}
}

func (s *session) closeStream() {
	s.closeOnce.Do(func() { close(s.stream) })
}

func isCancellation(err error) bool {
	return err != nil &&
		(api.IsCancelled(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func resultDetail(res api.StepResult) string {
	if res.Point == nil {
		return ""
	}
	return fmt.Sprintf("%s (%d, %d)", res.Tier, res.Point.X, res.Point.Y)
}
