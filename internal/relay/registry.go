package relay

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultRegistryShards is used when the configured shard count is not positive.
const DefaultRegistryShards = 16

// Registry maps connection ids to their admitted sessions. It is sharded so
// that registration churn on one set of connections does not contend with
// lookups for another.
type Registry struct {
	shards []*registryShard
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds a registry with the given shard count.
func NewRegistry(shards int) *Registry {
	if shards <= 0 {
		shards = DefaultRegistryShards
	}
	r := &Registry{shards: make([]*registryShard, shards)}
	for i := range r.shards {
		r.shards[i] = &registryShard{sessions: make(map[string]*Session)}
	}
	return r
}

func (r *Registry) shard(connID string) *registryShard {
	return r.shards[xxhash.Sum64String(connID)%uint64(len(r.shards))]
}

// Register admits a session. Registering an id twice is refused: a
// connection's identity is set at most once.
func (r *Registry) Register(s *Session) error {
	sh := r.shard(s.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[s.ID]; ok {
		return ErrAlreadyRegistered
	}
	sh.sessions[s.ID] = s
	return nil
}

// Lookup returns the session for connID, if registered.
func (r *Registry) Lookup(connID string) (*Session, bool) {
	sh := r.shard(connID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[connID]
	return s, ok
}

// Unregister removes and returns the session for connID. The second return
// is false if it was not registered, which makes teardown idempotent.
func (r *Registry) Unregister(connID string) (*Session, bool) {
	sh := r.shard(connID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(sh.sessions, connID)
	return s, true
}

// Active snapshots every registered session, for global broadcast.
func (r *Registry) Active() []*Session {
	out := make([]*Session, 0, 64)
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			out = append(out, s)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
