package relay

import (
	"testing"
	"time"

	"github.com/komiyunity/relay-server/internal/auth"
	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestRelay(t *testing.T, cfg RouterConfig) (*Registry, *Rooms, *Lifecycle, *Router) {
	t.Helper()
	registry := NewRegistry(4)
	rooms := NewRooms()
	lifecycle := NewLifecycle(registry, rooms, testLogger())
	router := NewRouter(registry, rooms, lifecycle, cfg, testLogger())
	return registry, rooms, lifecycle, router
}

func testPrincipal(uid, name string) auth.Principal {
	return auth.Principal{
		UID:             uid,
		Name:            name,
		Email:           uid + "@example.com",
		AuthenticatedAt: time.Now(),
	}
}

func admit(t *testing.T, registry *Registry, connID, uid, name string) *Session {
	t.Helper()
	sess := NewSession(connID, testPrincipal(uid, name), 8)
	if err := registry.Register(sess); err != nil {
		t.Fatalf("register %s: %v", connID, err)
	}
	return sess
}

func mustEvent(t *testing.T, sess *Session, kind EventKind) Event {
	t.Helper()
	select {
	case ev := <-sess.Events():
		if ev.Kind != kind {
			t.Fatalf("expected event kind %v, got %v (%+v)", kind, ev.Kind, ev)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event kind %v not received", kind)
		return Event{}
	}
}

func mustNoEvent(t *testing.T, sess *Session) {
	t.Helper()
	select {
	case ev := <-sess.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
