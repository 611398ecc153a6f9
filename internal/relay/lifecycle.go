package relay

import "github.com/rs/zerolog"

// Lifecycle reclaims everything a connection owns once it goes away. The
// registry entry is claimed first, so concurrent or repeated teardown of the
// same connection collapses to a single pass.
type Lifecycle struct {
	registry *Registry
	rooms    *Rooms
	log      *zerolog.Logger
}

// NewLifecycle builds the teardown coordinator.
func NewLifecycle(registry *Registry, rooms *Rooms, logger *zerolog.Logger) *Lifecycle {
	return &Lifecycle{registry: registry, rooms: rooms, log: logger}
}

// OnDisconnect removes connID from the registry and from every room it
// belonged to, then closes the session. Idempotent. A fan-out holding an
// older member snapshot may still attempt delivery; it hits the closed
// session and handles that as a transport failure.
func (l *Lifecycle) OnDisconnect(connID string) {
	sess, ok := l.registry.Unregister(connID)
	if !ok {
		return
	}
	l.rooms.LeaveAll(connID)
	sess.Close()
	l.log.Debug().
		Str("conn_id", connID).
		Str("uid", sess.Principal.UID).
		Msg("connection torn down")
}

// CloseAll tears down every registered session, used on shutdown.
func (l *Lifecycle) CloseAll() {
	for _, sess := range l.registry.Active() {
		l.OnDisconnect(sess.ID)
	}
}
