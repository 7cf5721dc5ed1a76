package rum

import (
	"github.com/google/uuid"

	"rumagent/pkg/event"
)

// ViewScope tracks one visible view. It stays open until its identity stops
// resolving or a matching StopViewCommand arrives.
type ViewScope struct {
	parent   *SessionScope
	id       string
	identity Identity
	name     string
}

func newViewScope(parent *SessionScope, cmd StartViewCommand) *ViewScope {
	v := &ViewScope{
		parent:   parent,
		id:       uuid.NewString(),
		identity: cmd.Identity,
		name:     cmd.Name,
	}
	v.emit(event.TypeViewStart, cmd.At.UnixNano(), cmd.Name, cmd.Attributes)
	return v
}

// Context returns the parent session context with this view's ID filled in.
func (v *ViewScope) Context() Context {
	c := v.parent.Context()
	c.ViewID = v.id
	return c
}

// Process checks liveness and handles stop requests. A view whose identity
// no longer resolves closes without a stop event; the platform object it
// described is gone.
func (v *ViewScope) Process(cmd Command) bool {
	if v.identity == nil || !v.identity.Alive() {
		return false
	}
	if stop, ok := cmd.(StopViewCommand); ok {
		if stop.Identity != nil && stop.Identity.Key() == v.identity.Key() {
			v.emit(event.TypeViewStop, stop.At.UnixNano(), v.name, nil)
			return false
		}
	}
	return true
}

// record emits an action or error event into this view. Only the session's
// frontmost view receives these, so a command yields at most one event.
func (v *ViewScope) record(cmd Command) {
	switch c := cmd.(type) {
	case AddActionCommand:
		v.emit(event.TypeAction, c.At.UnixNano(), c.Name, c.Attributes)
	case AddErrorCommand:
		v.emit(event.TypeError, c.At.UnixNano(), c.Message, c.Attributes)
	}
}

// transferTo re-parents a still-live view into a successor session.
func (v *ViewScope) transferTo(s *SessionScope) *ViewScope {
	v.parent = s
	return v
}

func (v *ViewScope) emit(t event.Type, ts int64, name string, attrs map[string]any) {
	ctx := v.Context()
	v.parent.writer.Write(event.Event{
		Type:          t,
		TS:            ts,
		ApplicationID: ctx.ApplicationID,
		SessionID:     ctx.SessionID,
		ViewID:        ctx.ViewID,
		Name:          name,
		Attributes:    attrs,
	})
}
