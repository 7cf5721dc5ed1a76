package rum

// ApplicationScope is the permanent root of the hierarchy. It owns at most
// one session at a time and replaces it on expiry; the command that exposed
// the expiry is replayed against the successor so it is never lost.
type ApplicationScope struct {
	applicationID string
	writer        EventWriter
	session       *SessionScope
}

// NewApplicationScope creates the root scope for one application.
func NewApplicationScope(applicationID string, w EventWriter) *ApplicationScope {
	return &ApplicationScope{applicationID: applicationID, writer: w}
}

// Context returns a context carrying only the application ID.
func (a *ApplicationScope) Context() Context {
	return Context{ApplicationID: a.applicationID}
}

// Process routes a command to the current session, creating or renewing it
// first. The root scope never closes.
func (a *ApplicationScope) Process(cmd Command) bool {
	if a.session == nil {
		a.session = newSessionScope(a, cmd.Time())
	}
	if !a.session.Process(cmd) {
		a.session = newSuccessorSession(a.session, cmd.Time())
		a.session.Process(cmd)
	}
	return true
}
