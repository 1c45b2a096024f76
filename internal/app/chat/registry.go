/*
Package chat contains the core logic for the real-time message broker.

This file defines the Conn record for a single live connection and the
Registry, the concurrency-safe directory of all currently-connected clients.
The Registry owns every Conn exclusively; no other component mutates one
directly.
*/
package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"minichat/internal/app/user"
	"minichat/internal/pkg/logx"
	"minichat/internal/pkg/randx"
)

// sendChannelBuffer is the capacity of each connection's outbound queue.
const sendChannelBuffer = 256

var (
	// ErrNotRegistered reports an operation on a connection the Registry does not know.
	ErrNotRegistered = errors.New("connection is not registered")

	// ErrAlreadyBound reports a second Bind on the same connection. A
	// connection's identity never changes once set.
	ErrAlreadyBound = errors.New("connection is already bound to an identity")
)

// Conn is the ephemeral record of one live connection: its identifier, the
// identity bound to it (nil until authenticated), and its outbound queue.
type Conn struct {
	id uuid.UUID

	// user is the bound identity. Guarded by the owning Registry's mutex.
	user *user.User

	// send queues outbound events for the connection's write pump.
	send chan []byte

	// done is closed exactly once when the connection is unregistered.
	done chan struct{}

	closeOnce sync.Once
}

// NewConn constructs a connection record with a fresh ConnectionID and an
// empty outbound queue. The record carries no identity until Bind.
func NewConn() *Conn {
	return &Conn{
		id:   randx.ConnectionID(),
		send: make(chan []byte, sendChannelBuffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// Outbound exposes the queue the connection's write pump drains. Events
// arrive in the order the broker issued them.
func (c *Conn) Outbound() <-chan []byte {
	return c.send
}

// Done is closed when the connection has been unregistered.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// close marks the connection dead. Safe to call more than once.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// trySend queues an event without ever blocking. A full queue or a dead
// connection drops the event and reports false.
func (c *Conn) trySend(event []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Registry is the concurrency-safe directory of live connections. All
// mutating operations and the membership snapshot inside Broadcast are
// mutually exclusive; per-connection delivery happens outside the lock.
type Registry struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*Conn
	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*Conn),
		logger: logx.Logger().With().Str("component", "registry").Logger(),
	}
}

// Register adds a new, initially-unauthenticated connection and returns its
// ConnectionID. Register always succeeds.
func (r *Registry) Register(c *Conn) uuid.UUID {
	r.mu.Lock()
	r.conns[c.id] = c
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info().
		Str("connection_id", c.id.String()).
		Int("total_connections", total).
		Msg("Connection registered.")

	return c.id
}

// Bind attaches an identity to a registered connection. Binding twice is a
// programming error and reports ErrAlreadyBound rather than silently
// overwriting; the original identity stays in place.
func (r *Registry) Bind(connID uuid.UUID, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return ErrNotRegistered
	}

	if c.user != nil {
		return ErrAlreadyBound
	}

	c.user = &u

	r.logger.Info().
		Str("connection_id", connID.String()).
		Str("user_id", u.ID).
		Str("username", u.Username).
		Msg("Connection bound to identity.")

	return nil
}

// Identity reports the identity bound to the given connection. ok is false
// when the connection is unknown or not yet authenticated.
func (r *Registry) Identity(connID uuid.UUID) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[connID]
	if !ok || c.user == nil {
		return user.User{}, false
	}

	return *c.user, true
}

// Unregister removes the connection and wakes its write pump. Calling it for
// an unknown or already-removed connection is a no-op.
func (r *Registry) Unregister(connID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if !ok {
		return
	}

	c.close()

	r.logger.Info().
		Str("connection_id", connID.String()).
		Int("total_connections", total).
		Msg("Connection unregistered.")
}

// Len reports the number of currently registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Broadcast delivers the event to every connection registered at call time.
// Membership is read as one atomic snapshot: a connection registered after
// Broadcast begins does not receive this event, and one removed mid-delivery
// never blocks the rest. A connection whose queue is full has this one
// delivery dropped and is scheduled for removal; the broadcast completes for
// all other connections regardless.
func (r *Registry) Broadcast(event []byte) {
	r.mu.RLock()
	snapshot := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		if !c.trySend(event) {
			r.logger.Warn().
				Str("connection_id", c.id.String()).
				Msg("Connection send queue full or closed, scheduling removal.")

			go r.Unregister(c.id)
		}
	}
}

// Shutdown removes every connection and closes it, waking all write pumps.
// Used at service teardown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[uuid.UUID]*Conn)
	r.mu.Unlock()

	for _, c := range conns {
		c.close()
	}

	r.logger.Info().Int("closed_connections", len(conns)).Msg("Registry shutdown complete.")
}
