package api

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a replay session.
//
// Sessions move strictly forward:
//
//	PENDING -> PREVIEWING -> AWAITING_CONFIRMATION -> RUNNING
//	RUNNING -> COMPLETED | CANCELLED | ABORTED
//
// Cancellation is legal from any non-terminal state and is irreversible.
type SessionStatus string

const (
	SessionPending              SessionStatus = "PENDING"
	SessionPreviewing           SessionStatus = "PREVIEWING"
	SessionAwaitingConfirmation SessionStatus = "AWAITING_CONFIRMATION"
	SessionRunning              SessionStatus = "RUNNING"
	SessionCompleted            SessionStatus = "COMPLETED"
	SessionCancelled            SessionStatus = "CANCELLED"
	SessionAborted              SessionStatus = "ABORTED"
)

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionCancelled, SessionAborted:
		return true
	}
	return false
}

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StepSucceeded StepStatus = "SUCCEEDED"
	StepFailed    StepStatus = "FAILED"

	// StepSkipped marks steps that never ran because the session ended
	// first (cancellation or a fatal earlier step).
	StepSkipped StepStatus = "SKIPPED"
)

// ResolveTier names which target tier produced the pointer position.
type ResolveTier string

const (
	TierAnchor   ResolveTier = "anchor"
	TierRelative ResolveTier = "relative"
	TierAbsolute ResolveTier = "absolute"
)

// StepResult records the outcome of one step. Results are append-only:
// the session adds one result per step in execution order and never
// rewrites an earlier entry.
type StepResult struct {
	StepID int        `json:"step_id"`
	Action ActionKind `json:"action"`
	Status StepStatus `json:"status"`

	// Attempts is how many attempts actually ran (0 for skipped steps).
	Attempts int `json:"attempts"`

	// Reason explains failures and skips; empty on success.
	Reason string `json:"reason,omitempty"`

	// Tier and Point describe how a pointer step was resolved on its
	// final attempt.
	Tier  ResolveTier `json:"tier,omitempty"`
	Point *Point      `json:"point,omitempty"`

	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Summary is the durable record of a session. The engine saves it when the
// run starts and updates it as steps finish, so a crash mid-replay still
// leaves the partial record behind.
type Summary struct {
	ID       string        `json:"id"`
	Workflow string        `json:"workflow"`
	Status   SessionStatus `json:"status"`

	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// Error is the terminal error for aborted sessions, empty otherwise.
	Error string `json:"error,omitempty"`

	Results []StepResult `json:"results,omitempty"`
}

// Succeeded counts steps that succeeded.
func (s *Summary) Succeeded() int { return s.countStatus(StepSucceeded) }

// Failed counts steps that exhausted their attempts.
func (s *Summary) Failed() int { return s.countStatus(StepFailed) }

// Skipped counts steps that never ran.
func (s *Summary) Skipped() int { return s.countStatus(StepSkipped) }

func (s *Summary) countStatus(st StepStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// PreviewLine describes one step of a preview report.
type PreviewLine struct {
	StepID      int
	Action      ActionKind
	Description string

	// PostCondition is the human-readable wait description, or the fixed
	// delay note when the step has none.
	PostCondition string

	// MaxAttempts is the effective attempt budget for the step.
	MaxAttempts int
}

// PreviewReport is the ordered, human-readable plan of a session. Producing
// it touches no provider: a dry run performs zero captures and zero input
// injections.
type PreviewReport struct {
	Workflow    string
	GeneratedAt time.Time
	Lines       []PreviewLine
}

// String renders the report as a numbered list, one line per step.
func (r *PreviewReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow %q: %d steps\n", r.Workflow, len(r.Lines))
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%3d. %s", l.StepID, l.Description)
		if l.PostCondition != "" {
			fmt.Fprintf(&b, ", %s", l.PostCondition)
		}
		if l.MaxAttempts > 1 {
			fmt.Fprintf(&b, " (up to %d attempts)", l.MaxAttempts)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Session is one replay of one workflow. Sessions are single-use: create,
// preview, confirm by calling Run, then read the summary.
type Session interface {
	ID() string
	WorkflowName() string
	Status() SessionStatus

	// Preview builds the dry-run report and moves the session to
	// AWAITING_CONFIRMATION. It performs no captures and no injections.
	Preview(ctx context.Context) (*PreviewReport, error)

	// Run is the operator's explicit confirmation. It refuses unless the
	// session is AWAITING_CONFIRMATION, counts down, executes the steps,
	// and always returns a summary for the attempt, even on cancellation.
	Run(ctx context.Context) (*Summary, error)

	// Cancel requests cancellation. Safe to call from any goroutine and
	// at any time; a running session reacts within one poll interval.
	Cancel()

	// Events streams the session's ordered event history. The channel is
	// buffered generously enough that the engine never blocks on it, and
	// it is closed when the session reaches a terminal state.
	Events() <-chan ReplayEvent

	// Summary returns the session record, or nil before Run has produced
	// one.
	Summary() *Summary
}

// SessionFilter selects archived sessions. Zero values mean "no filter".
type SessionFilter struct {
	Workflow string
	Status   SessionStatus
}
