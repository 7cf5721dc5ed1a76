// Package rum converts the stream of timestamped instrumentation commands
// into nested, time-bounded scopes (application > session > view) and
// resolves the identifying context attached to every emitted event.
package rum

// Context is the immutable snapshot of identifying fields attached to
// emitted events. A child scope derives its context by copying the parent's
// and overwriting the fields it owns.
type Context struct {
	ApplicationID string
	SessionID     string
	ViewID        string
}
