package presence

import (
	"sync"

	"community-chat-service/internal/models"
)

// Registry is the in-memory source of truth for who is online. State lives
// only for the lifetime of the process; clients re-join on reconnect.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]models.PresenceEntry
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]models.PresenceEntry)}
}

// Register binds a connection to an identity. Re-registering an existing
// connection replaces its identity in place, keeping the insertion slot.
func (r *Registry) Register(connectionID string, identity models.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[connectionID]; !ok {
		r.order = append(r.order, connectionID)
	}
	r.entries[connectionID] = models.PresenceEntry{ConnectionID: connectionID, Identity: identity}
}

// Unregister removes a connection and returns the entry it held.
func (r *Registry) Unregister(connectionID string) (models.PresenceEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[connectionID]
	if !ok {
		return models.PresenceEntry{}, false
	}
	delete(r.entries, connectionID)
	for i, id := range r.order {
		if id == connectionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return entry, true
}

// Lookup returns the entry for a connection.
func (r *Registry) Lookup(connectionID string) (models.PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[connectionID]
	return entry, ok
}

// Snapshot returns the distinct participants currently connected, in the
// order their first connection registered. A participant holding several
// connections appears once.
func (r *Registry) Snapshot() []models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.order))
	list := make([]models.Identity, 0, len(r.order))
	for _, connID := range r.order {
		entry := r.entries[connID]
		if _, ok := seen[entry.ParticipantID]; ok {
			continue
		}
		seen[entry.ParticipantID] = struct{}{}
		list = append(list, entry.Identity)
	}
	return list
}
