// Package reenact replays recorded desktop workflows against a live screen.
//
// Reenact consumes workflow documents produced by a recorder (ordered
// sequences of clicks, keystrokes and pauses) and re-executes them, finding
// each step's target on the current screen even when windows have moved,
// waiting for observable outcomes instead of sleeping, and retrying
// deterministically on failure. It runs fully in Go; the platform pieces
// (screen capture, input injection, text recognition) plug in behind narrow
// interfaces.
//
// # Core Concepts
//
// The reenact programming model is intentionally small:
//
//  1. Engine
//  2. Session
//  3. WorkflowBuilder
//  4. Providers
//  5. Player
//
// # Engine
//
// The Engine holds registered workflows, the platform providers, and the
// session archive. It provides APIs to:
//   - register and validate workflows
//   - create replay sessions
//   - produce dry-run preview reports
//   - read archived session summaries and event histories
//
// Engines can archive sessions in different stores:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//
// Workflow documents themselves live on disk as JSON or YAML files; the
// SQLite bundle wires a document library directory and a SQLite archive into
// one engine.
//
// # Session
//
// A Session is one replay of one workflow, driven through a strict
// lifecycle:
//
//	PENDING -> PREVIEWING -> AWAITING_CONFIRMATION -> RUNNING -> terminal
//
// Preview produces the dry-run report without touching a single provider.
// Run is the operator's explicit confirmation: it counts down, executes the
// steps sequentially, and always returns a structured summary: completed,
// cancelled or aborted, never a crash. Cancellation is cooperative and
// reacts within one poll interval, whether requested through Cancel or by
// parking the pointer in the configured abort zone.
//
// Each step resolves its target through a deterministic tier chain: template
// match against the live screen, then the recorded position inside the
// active window, then the recorded absolute coordinates clamped to the
// current screen. Steps wait on observable post-conditions (an anchor
// appearing, text showing up, a window title, a process) instead of fixed
// delays; a step with no condition gets a short, named fallback delay.
//
// # WorkflowBuilder
//
// WorkflowBuilder provides the ergonomic API used to define workflows in
// code (recorded documents are the other source):
//
//	wf := reenact.New("submit-form").
//	    Click(reenact.Anchor("name-field.png")).
//	    Type("Ada Lovelace").
//	    Press("tab").
//	    Click(reenact.Anchor("submit.png").OrAt(640, 480)).
//	    Await(reenact.AnchorAppears("confirmation.png", 5*time.Second))
//
//	wf.MustRegister(engine)
//
// # Providers
//
// Providers bundle the platform collaborators: screen capture, input
// injection, text recognition, window info and process info. Reenact ships
// none of them; hosts supply implementations for their platform. An engine
// without providers can still validate, list and dry-run workflows.
//
// # Player
//
// Player drives the preview / confirm / run sequence on a background
// goroutine so the host's interactive thread stays responsive, streaming
// replay events back as they happen.
//
// For examples, see the /examples directory or the project README.
package reenact
