package app

import (
	"sync"

	"rumagent/pkg/rum"
)

// identityRegistry backs view identities reported over the local command
// API. A view key is alive from start until its stop is processed, which is
// the closest IPC analogue of holding a reference to a platform view object.
type identityRegistry struct {
	mu    sync.Mutex
	alive map[string]bool
}

func newIdentityRegistry() *identityRegistry {
	return &identityRegistry{alive: make(map[string]bool)}
}

// registeredIdentity resolves liveness through the registry so a key
// released by a later request kills every scope holding it.
type registeredIdentity struct {
	reg *identityRegistry
	key string
}

func (i *registeredIdentity) Key() string { return i.key }

func (i *registeredIdentity) Alive() bool {
	i.reg.mu.Lock()
	defer i.reg.mu.Unlock()
	return i.reg.alive[i.key]
}

// acquire marks key alive and returns its identity.
func (r *identityRegistry) acquire(key string) rum.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alive[key] = true
	return &registeredIdentity{reg: r, key: key}
}

// lookup returns an identity for key without changing liveness.
func (r *identityRegistry) lookup(key string) rum.Identity {
	return &registeredIdentity{reg: r, key: key}
}

// release marks key dead. Call after the stop command has been processed so
// the view can still emit its stop event.
func (r *identityRegistry) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alive, key)
}
