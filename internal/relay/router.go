package relay

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes bounds chat message bodies when no limit is configured.
const DefaultMaxBodyBytes = 4096

// RouterConfig selects the fan-out policy.
type RouterConfig struct {
	// MaxBodyBytes is the largest accepted message body.
	MaxBodyBytes int
	// LegacyBroadcast, when set, lets a message without a room fan out to
	// every active connection server-wide. When unset such messages are
	// rejected as bad requests.
	LegacyBroadcast bool
	// IncludeSender echoes room messages back to their sender.
	IncludeSender bool
}

// Router validates inbound chat messages, stamps them with the sender's
// authenticated identity, and fans them out to the delivery set.
type Router struct {
	registry  *Registry
	rooms     *Rooms
	lifecycle *Lifecycle
	cfg       RouterConfig
	log       *zerolog.Logger
	now       func() time.Time
}

// NewRouter wires a router over the shared registry and room directory.
func NewRouter(registry *Registry, rooms *Rooms, lifecycle *Lifecycle, cfg RouterConfig, logger *zerolog.Logger) *Router {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Router{
		registry:  registry,
		rooms:     rooms,
		lifecycle: lifecycle,
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
	}
}

// Join subscribes connID to roomID. The connection must be registered, which
// only happens after a successful handshake.
func (r *Router) Join(connID, roomID string) error {
	if _, ok := r.registry.Lookup(connID); !ok {
		return relayError(ErrCodeNotAuthenticated, "connection is not authenticated")
	}
	if roomID == "" {
		return relayError(ErrCodeBadRequest, "room is required")
	}
	r.rooms.Join(connID, roomID)
	return nil
}

// Leave unsubscribes connID from roomID. Leaving a room never joined is a no-op.
func (r *Router) Leave(connID, roomID string) error {
	if _, ok := r.registry.Lookup(connID); !ok {
		return relayError(ErrCodeNotAuthenticated, "connection is not authenticated")
	}
	if roomID == "" {
		return relayError(ErrCodeBadRequest, "room is required")
	}
	r.rooms.Leave(connID, roomID)
	return nil
}

// Route stamps and delivers one inbound chat message from connID. An empty
// roomID selects the legacy global-broadcast mode if the router allows it.
// The returned error, if any, concerns the sender alone; fan-out failures to
// individual recipients never surface here.
func (r *Router) Route(connID, roomID, body string) error {
	sender, ok := r.registry.Lookup(connID)
	if !ok {
		return relayError(ErrCodeNotAuthenticated, "connection is not authenticated")
	}

	if strings.TrimSpace(body) == "" {
		return relayError(ErrCodeValidationError, "message body is empty")
	}
	if len(body) > r.cfg.MaxBodyBytes {
		return relayError(ErrCodeValidationError, "message body too large")
	}
	if roomID == "" && !r.cfg.LegacyBroadcast {
		return relayError(ErrCodeBadRequest, "room is required")
	}

	msg := Message{
		SenderID:   sender.Principal.UID,
		SenderName: sender.Principal.Name,
		Room:       roomID,
		Body:       body,
		SentAt:     r.now(),
	}

	targets := r.resolve(roomID)
	r.fanOut(sender, targets, msg)
	return nil
}

// resolve computes the delivery snapshot. Locks are released before any
// session write happens.
func (r *Router) resolve(roomID string) []*Session {
	if roomID == "" {
		return r.registry.Active()
	}
	ids := r.rooms.Members(roomID)
	targets := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.registry.Lookup(id); ok {
			targets = append(targets, s)
		}
	}
	return targets
}

func (r *Router) fanOut(sender *Session, targets []*Session, msg Message) {
	var failed []*Session
	for _, target := range targets {
		if !r.cfg.IncludeSender && target.ID == sender.ID {
			continue
		}
		if err := target.Deliver(Event{Kind: EventChatMessage, Message: msg}); err != nil {
			r.log.Warn().
				Err(err).
				Str("conn_id", target.ID).
				Str("room", msg.Room).
				Msg("fan-out delivery failed")
			failed = append(failed, target)
		}
	}

	// Broken targets are torn down after the loop so one bad peer never
	// delays the rest of the delivery set.
	for _, target := range failed {
		r.lifecycle.OnDisconnect(target.ID)
	}
}
