package rum

import (
	"time"

	"github.com/google/uuid"

	"rumagent/pkg/event"
	"rumagent/pkg/logger"
)

// Session lifetime bounds. A session closes after 15 minutes without a
// command or 4 hours after it started, whichever comes first. Expiry is
// evaluated lazily against command timestamps, never against a wall clock
// ticking in the background.
const (
	SessionTimeout     = 15 * time.Minute
	SessionMaxDuration = 4 * time.Hour
)

// SessionScope groups views under one session ID. When it expires the
// application scope replaces it with a successor that inherits the views
// whose identities are still live.
type SessionScope struct {
	parent *ApplicationScope
	writer EventWriter

	id              string
	startTime       time.Time
	lastInteraction time.Time
	views           []*ViewScope
}

func newSessionScope(parent *ApplicationScope, startTime time.Time) *SessionScope {
	s := &SessionScope{
		parent:          parent,
		writer:          parent.writer,
		id:              uuid.NewString(),
		startTime:       startTime,
		lastInteraction: startTime,
	}
	logger.Debug("session_started", "session_id", s.id)
	return s
}

// newSuccessorSession builds the replacement for an expired session. Views
// whose platform identity still resolves carry over; dead ones are dropped
// without a stop event.
func newSuccessorSession(expired *SessionScope, startTime time.Time) *SessionScope {
	s := newSessionScope(expired.parent, startTime)
	for _, v := range expired.views {
		if v.identity != nil && v.identity.Alive() {
			s.views = append(s.views, v.transferTo(s))
		}
	}
	logger.Debug("session_renewed",
		"previous_session_id", expired.id,
		"session_id", s.id,
		"transferred_views", len(s.views))
	return s
}

// ID returns the session identifier.
func (s *SessionScope) ID() string { return s.id }

// Context returns the application context with this session's ID filled in.
func (s *SessionScope) Context() Context {
	c := s.parent.Context()
	c.SessionID = s.id
	return c
}

// Process applies a command to the session and its views. It returns false
// when the session expired before this command, in which case the command
// has NOT been applied and must be replayed against the successor.
func (s *SessionScope) Process(cmd Command) bool {
	now := cmd.Time()
	if s.expiredAt(now) {
		return false
	}
	s.lastInteraction = now

	if start, ok := cmd.(StartViewCommand); ok {
		s.views = append(s.views, newViewScope(s, start))
	}

	live := s.views[:0]
	for _, v := range s.views {
		if v.Process(cmd) {
			live = append(live, v)
		}
	}
	s.views = live

	switch cmd.(type) {
	case AddActionCommand, AddErrorCommand:
		if v := s.currentView(); v != nil {
			v.record(cmd)
		} else {
			s.recordSessionLevel(cmd)
		}
	}
	return true
}

func (s *SessionScope) expiredAt(now time.Time) bool {
	return now.Sub(s.lastInteraction) >= SessionTimeout ||
		now.Sub(s.startTime) >= SessionMaxDuration
}

// currentView is the most recently started view still open, or nil.
func (s *SessionScope) currentView() *ViewScope {
	if len(s.views) == 0 {
		return nil
	}
	return s.views[len(s.views)-1]
}

// recordSessionLevel keeps actions and errors that arrive with no view open.
func (s *SessionScope) recordSessionLevel(cmd Command) {
	ctx := s.Context()
	e := event.Event{
		TS:            cmd.Time().UnixNano(),
		ApplicationID: ctx.ApplicationID,
		SessionID:     ctx.SessionID,
	}
	switch c := cmd.(type) {
	case AddActionCommand:
		e.Type = event.TypeAction
		e.Name = c.Name
		e.Attributes = c.Attributes
	case AddErrorCommand:
		e.Type = event.TypeError
		e.Name = c.Message
		e.Attributes = c.Attributes
	default:
		return
	}
	s.writer.Write(e)
}
