package rum

import "sync"

// Provider is the public entry point of the scope hierarchy. All commands
// funnel through one mutex so scope state only ever sees a single writer,
// and CurrentContext observes a consistent snapshot between commands.
type Provider struct {
	mu   sync.Mutex
	root *ApplicationScope
}

// NewProvider builds the hierarchy root for the given application ID.
func NewProvider(applicationID string, w EventWriter) *Provider {
	return &Provider{root: NewApplicationScope(applicationID, w)}
}

// Process applies one command to the hierarchy.
func (p *Provider) Process(cmd Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root.Process(cmd)
}

// CurrentContext resolves the most specific open scope: the current view if
// one is open, else the session, else the bare application context.
func (p *Provider) CurrentContext() Context {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.root.session
	if s == nil {
		return p.root.Context()
	}
	if v := s.currentView(); v != nil {
		return v.Context()
	}
	return s.Context()
}
