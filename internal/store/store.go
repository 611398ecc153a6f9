package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// User is a directory profile keyed by the identity provider's uid.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	LastLogin time.Time
}

// ChatRoom is room metadata kept for listing and ownership. The relay core
// never consults it to route messages; room ids stay opaque strings there.
type ChatRoom struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
}

// UserStore persists directory profiles.
type UserStore interface {
	UpsertUser(ctx context.Context, id, name, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// ChatRoomStore persists room metadata.
type ChatRoomStore interface {
	CreateChatRoom(ctx context.Context, name, description, ownerID string) (*ChatRoom, error)
	ListChatRooms(ctx context.Context) ([]ChatRoom, error)
}

// Store is the full directory service surface.
type Store interface {
	UserStore
	ChatRoomStore
	Close() error
}
