// Package api contains the core building blocks of the reenact replay
// engine: the workflow model, the session lifecycle, provider interfaces,
// and observability hooks.
//
// Most users interact with the higher-level reenact package, which
// re-exports selected types and helpers from this package. The api package
// is intended for advanced use cases, custom integrations, or contributors
// extending the engine itself.
//
// # Workflows and Steps
//
// A Workflow is a recorded sequence of UI steps: clicks, double clicks,
// typed text, key chords, and pauses. Each pointer step carries a tiered
// Target (anchor image, window-relative position, absolute position) and
// optionally a PostCondition describing the observable outcome the engine
// should wait for before moving on. Workflows validate on registration;
// the engine never runs an invalid one.
//
// # Sessions
//
// A Session is one replay of one workflow. Sessions move strictly forward
// through their lifecycle: preview first (a dry run that touches nothing),
// then an explicit confirmation via Run, a countdown, and finally the
// steps themselves. Cancellation is possible at every point, either from
// the API or by moving the pointer into the abort zone, and is always
// honored within one poll interval.
//
// # Providers
//
// The engine does not capture screens, recognize text, or inject input by
// itself. Hosts supply those as narrow interfaces (ScreenProvider,
// InputProvider, TextRecognizer, WindowInfoProvider, ProcessInfoProvider),
// which keeps the engine testable and portable across platforms.
//
// # Observability
//
// The Observer interface reports session and step lifecycle to logging and
// metrics sinks; LoggingObserver (log/slog) and BasicMetrics are ready-made
// implementations, combinable with NewCompositeObserver. Independently of
// observers, every session exposes an ordered, append-only event stream.
package api
