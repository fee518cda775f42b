// internal/registry/conn.go
package registry

import (
	"sync"

	"github.com/google/uuid"
)

// sendBuffer is how many outbound frames a connection may queue before
// pushes start getting dropped for it.
const sendBuffer = 64

// Conn is one live client connection. The transport owns the read and
// write sides; everyone else only ever talks to it through TrySend.
type Conn struct {
	ID uuid.UUID

	mu     sync.RWMutex
	userID uuid.UUID

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn() *Conn {
	return &Conn{
		ID:   uuid.New(),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// User returns the authenticated user and whether the connection has
// completed authentication yet.
func (c *Conn) User() (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.userID != uuid.Nil
}

func (c *Conn) setUser(id uuid.UUID) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// TrySend queues a frame without blocking. It reports false when the
// connection is closed or its buffer is full; callers treat that as a
// stale connection and move on.
func (c *Conn) TrySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Outbox is the write pump's feed. The channel is never closed; pumps
// must select on Done as well.
func (c *Conn) Outbox() <-chan []byte {
	return c.send
}

// Done is closed once the connection is shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection dead. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.done) })
}
