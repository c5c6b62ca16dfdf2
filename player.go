package reenact

import (
	"context"
	"errors"
	"sync"
)

// ConfirmFunc decides whether a previewed session may run. The host shows
// the report to the operator and returns true on an explicit yes. Returning
// false cancels the session before anything moves.
type ConfirmFunc func(*PreviewReport) bool

// Player drives one session through preview, confirmation and run on a
// background goroutine, so a host application's interactive thread stays
// responsive while the replay holds the pointer and keyboard.
//
// Typical usage:
//
//	player := reenact.NewPlayer(engine)
//	if err := player.Start(ctx, "submit-form", askOperator); err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range player.Events() {
//	    render(ev)
//	}
//	summary, err := player.Wait()
//
// A Player runs one session at a time; Start returns an error while a
// previous session is still in flight.
type Player struct {
	eng Engine

	mu      sync.Mutex
	session Session
	running bool
	wg      sync.WaitGroup

	summary *Summary
	err     error
}

// NewPlayer creates a Player on top of the given engine.
func NewPlayer(eng Engine) *Player {
	return &Player{eng: eng}
}

// Start creates a session for the named workflow and drives it in the
// background: preview, then the confirm callback, then the run. A nil
// confirm auto-confirms, which is only appropriate for tests and fully
// unattended hosts.
//
// Start returns immediately after the session is created; preview and run
// errors surface through Wait.
func (p *Player) Start(ctx context.Context, workflow string, confirm ConfirmFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("reenact: player already has a session in flight")
	}

	session, err := p.eng.NewSession(workflow)
	if err != nil {
		return err
	}

	p.session = session
	p.running = true
	p.summary = nil
	p.err = nil

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.drive(ctx, session, confirm)
	}()

	return nil
}

func (p *Player) drive(ctx context.Context, session Session, confirm ConfirmFunc) {
	report, err := session.Preview(ctx)
	if err != nil {
		p.settle(nil, err)
		return
	}

	if confirm != nil && !confirm(report) {
		session.Cancel()
		p.settle(session.Summary(), ErrCancelled)
		return
	}

	summary, err := session.Run(ctx)
	p.settle(summary, err)
}

func (p *Player) settle(summary *Summary, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = summary
	p.err = err
	p.running = false
}

// Events returns the current session's event stream, or nil before the
// first Start. The channel closes when the session reaches a terminal
// state.
func (p *Player) Events() <-chan ReplayEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	return p.session.Events()
}

// Session returns the current session, or nil before the first Start.
func (p *Player) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Stop cancels the in-flight session, if any, and waits for it to settle.
// Safe to call at any time and from any goroutine.
func (p *Player) Stop() {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()

	if session != nil {
		session.Cancel()
	}
	p.wg.Wait()
}

// Wait blocks until the session settles and returns its summary. The error
// is nil for a completed run, ErrCancelled for cancelled ones (including a
// declined confirmation, where the summary is nil because nothing ran), and
// the fatal failure for aborted ones.
func (p *Player) Wait() (*Summary, error) {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary, p.err
}
