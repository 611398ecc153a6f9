package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/komiyunity/relay-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "directory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertUserCreatesAndRefreshes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.UpsertUser(ctx, "u1", "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.ID != "u1" || created.Name != "Alice" || created.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", created)
	}
	if created.CreatedAt.IsZero() || created.LastLogin.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}

	updated, err := st.UpsertUser(ctx, "u1", "Alice L.", "alice@example.com")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if updated.Name != "Alice L." {
		t.Fatalf("name not refreshed: %+v", updated)
	}

	users, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}

func TestGetUserNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetUser(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.TouchLastLogin(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := st.UpsertUser(ctx, "u1", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := st.TouchLastLogin(ctx, "u1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
}

func TestChatRoomCreateAndList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	room, err := st.CreateChatRoom(ctx, "general", "Town square", "u1")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.ID == "" || room.Name != "general" || room.OwnerID != "u1" {
		t.Fatalf("unexpected room: %+v", room)
	}

	second, err := st.CreateChatRoom(ctx, "random", "Off topic", "u2")
	if err != nil {
		t.Fatalf("create second room: %v", err)
	}
	if second.ID == room.ID {
		t.Fatal("room ids collide")
	}

	rooms, err := st.ListChatRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected two rooms, got %d", len(rooms))
	}
}
