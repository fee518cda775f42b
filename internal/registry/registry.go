// internal/registry/registry.go

// Package registry tracks live client connections and their identity and
// lobby subscriptions. It is a pure lookup structure: it never touches
// the database and never blocks on the network, so it is safe to call
// while holding lobby locks.
package registry

import (
	"sync"

	"github.com/google/uuid"
)

type Registry struct {
	mu      sync.RWMutex
	conns   map[uuid.UUID]*Conn
	byUser  map[uuid.UUID]map[uuid.UUID]*Conn
	byLobby map[uuid.UUID]map[uuid.UUID]*Conn
	subs    map[uuid.UUID]map[uuid.UUID]struct{}
}

func New() *Registry {
	return &Registry{
		conns:   make(map[uuid.UUID]*Conn),
		byUser:  make(map[uuid.UUID]map[uuid.UUID]*Conn),
		byLobby: make(map[uuid.UUID]map[uuid.UUID]*Conn),
		subs:    make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Register creates a tracking entry for a freshly accepted connection
// and returns its handle. The connection starts unauthenticated.
func (r *Registry) Register() *Conn {
	c := newConn()
	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()
	return c
}

// Authenticate binds a verified user identity to a connection. Unknown
// handles are ignored. Re-authenticating moves the connection to the
// new user's set.
func (r *Registry) Authenticate(connID, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	if prev, authed := c.User(); authed {
		r.dropUserIndex(prev, connID)
	}
	c.setUser(userID)
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[uuid.UUID]*Conn)
		r.byUser[userID] = set
	}
	set[connID] = c
}

// Subscribe adds the connection to a lobby's push set. Unknown handles
// are ignored. Subscribing twice is a no-op.
func (r *Registry) Subscribe(connID, lobbyID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	set, ok := r.byLobby[lobbyID]
	if !ok {
		set = make(map[uuid.UUID]*Conn)
		r.byLobby[lobbyID] = set
	}
	set[connID] = c

	lobbies, ok := r.subs[connID]
	if !ok {
		lobbies = make(map[uuid.UUID]struct{})
		r.subs[connID] = lobbies
	}
	lobbies[lobbyID] = struct{}{}
}

// Unsubscribe removes the connection from a lobby's push set. Unknown
// handles and unsubscribed lobbies are ignored.
func (r *Registry) Unsubscribe(connID, lobbyID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLobbyIndex(lobbyID, connID)
	if lobbies, ok := r.subs[connID]; ok {
		delete(lobbies, lobbyID)
		if len(lobbies) == 0 {
			delete(r.subs, connID)
		}
	}
}

// Remove tears down every index entry for the connection and closes it.
// Safe to call for never-authenticated connections and safe to call
// twice; the second call finds nothing and returns.
func (r *Registry) Remove(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	if userID, authed := c.User(); authed {
		r.dropUserIndex(userID, connID)
	}
	for lobbyID := range r.subs[connID] {
		r.dropLobbyIndex(lobbyID, connID)
	}
	delete(r.subs, connID)
	c.Close()
}

// Subscribed reports whether the connection is currently in the lobby's
// push set.
func (r *Registry) Subscribed(connID, lobbyID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[connID][lobbyID]
	return ok
}

// ConnectionsForUser snapshots every live connection authenticated as
// the given user, across devices and tabs.
func (r *Registry) ConnectionsForUser(userID uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.byUser[userID])
}

// ConnectionsForLobby snapshots every live connection subscribed to the
// given lobby.
func (r *Registry) ConnectionsForLobby(lobbyID uuid.UUID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.byLobby[lobbyID])
}

func (r *Registry) dropUserIndex(userID, connID uuid.UUID) {
	if set, ok := r.byUser[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *Registry) dropLobbyIndex(lobbyID, connID uuid.UUID) {
	if set, ok := r.byLobby[lobbyID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byLobby, lobbyID)
		}
	}
}

func collect(set map[uuid.UUID]*Conn) []*Conn {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}
