package rum

import "time"

// Identity references a platform view object. Liveness is owned by the
// platform collaborator: a view scope stays alive only while its identity
// still resolves.
type Identity interface {
	Key() string
	Alive() bool
}

// Command is one timestamped instruction for the scope hierarchy. The
// variant set is closed and dispatched by type switch.
type Command interface {
	Time() time.Time
	command()
}

// StartViewCommand opens a view scope for the given identity.
type StartViewCommand struct {
	At         time.Time
	Identity   Identity
	Name       string
	Attributes map[string]any
}

func (c StartViewCommand) Time() time.Time { return c.At }
func (StartViewCommand) command()          {}

// StopViewCommand closes the view scope matching the identity.
type StopViewCommand struct {
	At       time.Time
	Identity Identity
}

func (c StopViewCommand) Time() time.Time { return c.At }
func (StopViewCommand) command()          {}

// AddActionCommand records a user action in the current view.
type AddActionCommand struct {
	At         time.Time
	Name       string
	Attributes map[string]any
}

func (c AddActionCommand) Time() time.Time { return c.At }
func (AddActionCommand) command()          {}

// AddErrorCommand records an application error in the current view.
type AddErrorCommand struct {
	At         time.Time
	Message    string
	Attributes map[string]any
}

func (c AddErrorCommand) Time() time.Time { return c.At }
func (AddErrorCommand) command()          {}
