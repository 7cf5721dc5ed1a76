package rum

import "rumagent/pkg/event"

// EventWriter receives events emitted by scopes. Wired to the ingest queue
// in production; tests substitute an in-memory recorder.
type EventWriter interface {
	Write(e event.Event)
}

// Scope is one node of the hierarchy. Process applies a command and reports
// whether the scope is still open; a parent drops any child that returns
// false. Context resolves the identifying fields for events emitted at this
// level.
type Scope interface {
	Process(cmd Command) bool
	Context() Context
}
