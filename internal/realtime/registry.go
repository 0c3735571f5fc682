package realtime

import "sync"

// Registry maps an application user identity to its currently active
// connection. At most one connection per user: a re-registration replaces the
// previous mapping (last registration wins). Entries are removed when the
// owning connection goes away.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connID
	byConn map[string]string // connID -> userID, reverse index for cleanup
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register stores or overwrites the mapping for userID. Idempotent under
// re-registration; the new connection simply replaces the old one.
func (r *Registry) Register(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byUser[userID]; ok {
		delete(r.byConn, old)
	}
	// A connection switching users drops its previous identity.
	if prev, ok := r.byConn[connID]; ok {
		delete(r.byUser, prev)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
}

// Unregister removes any mapping owned by connID. Covers clients that
// disconnect without an explicit unregister message.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.byConn[connID]; ok {
		delete(r.byUser, userID)
		delete(r.byConn, connID)
	}
}

// Resolve returns the connection for userID. A missing entry is not an
// error: the user is simply not connected and callers skip delivery.
func (r *Registry) Resolve(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}
