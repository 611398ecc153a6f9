package relay

import (
	"sync"
	"time"

	"github.com/komiyunity/relay-server/internal/auth"
)

// Message is a server-stamped chat message. Sender identity always comes from
// the session's Principal, never from the inbound payload.
type Message struct {
	SenderID   string
	SenderName string
	Room       string // empty in global-broadcast mode
	Body       string
	SentAt     time.Time
}

// EventKind distinguishes what a session is being told.
type EventKind int

const (
	// EventChatMessage delivers a chat message to the session's peer.
	EventChatMessage EventKind = iota
	// EventError delivers a per-client error notice (validation and the like).
	EventError
)

// Event is what the relay hands to a session's transport writer.
type Event struct {
	Kind    EventKind
	Message Message
	Error   *RelayError
}

// Session is the relay-side handle for one admitted connection. The Principal
// is set at construction and never changes.
type Session struct {
	ID        string
	Principal auth.Principal

	mu     sync.Mutex
	closed bool
	events chan Event
	done   chan struct{}
}

// NewSession builds a session with an outbox of the given capacity.
func NewSession(id string, principal auth.Principal, buffer int) *Session {
	if buffer <= 0 {
		buffer = 32
	}
	return &Session{
		ID:        id,
		Principal: principal,
		events:    make(chan Event, buffer),
		done:      make(chan struct{}),
	}
}

// Events is consumed by the transport's write loop.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Deliver enqueues an event without blocking. A closed session reports
// ErrSessionClosed; a full outbox reports ErrSessionBusy. Either way the
// caller treats the session as a teardown candidate, never as a reason to
// stall other deliveries.
func (s *Session) Deliver(ev Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	select {
	case s.events <- ev:
		return nil
	default:
		return ErrSessionBusy
	}
}

// Close marks the session dead and wakes its writer. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
