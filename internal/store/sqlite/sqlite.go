package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/komiyunity/relay-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_login TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_rooms (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (and if needed creates) the directory database at dbPath.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertUser creates or refreshes a directory profile and bumps last_login.
func (s *SQLiteStore) UpsertUser(ctx context.Context, id, name, email string) (*store.User, error) {
	query := `
		INSERT INTO users (id, name, email)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name       = excluded.name,
			email      = excluded.email,
			last_login = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, id, name, email); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser retrieves a profile by uid.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, name, email, created_at, last_login
		FROM users
		WHERE id = ?
	`
	var u store.User
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every directory profile.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]store.User, error) {
	query := `
		SELECT id, name, email, created_at, last_login
		FROM users
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastLogin bumps last_login for an existing profile.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateChatRoom stores room metadata owned by ownerID.
func (s *SQLiteStore) CreateChatRoom(ctx context.Context, name, description, ownerID string) (*store.ChatRoom, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO chat_rooms (id, name, description, owner_id)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, id, name, description, ownerID); err != nil {
		return nil, fmt.Errorf("insert chat room: %w", err)
	}

	var room store.ChatRoom
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, owner_id, created_at
		FROM chat_rooms
		WHERE id = ?
	`, id).Scan(&room.ID, &room.Name, &room.Description, &room.OwnerID, &room.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get chat room: %w", err)
	}
	return &room, nil
}

// ListChatRooms returns all room metadata.
func (s *SQLiteStore) ListChatRooms(ctx context.Context) ([]store.ChatRoom, error) {
	query := `
		SELECT id, name, description, owner_id, created_at
		FROM chat_rooms
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	defer rows.Close()

	var rooms []store.ChatRoom
	for rows.Next() {
		var room store.ChatRoom
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.OwnerID, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
