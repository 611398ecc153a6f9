package relay

import "sync"

// Rooms is the room directory: room id to member connection ids. Rooms come
// into being on first join and disappear when their last member leaves.
// Membership mutation locks only the affected room; the table lock is held
// just long enough to find or create the entry.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*room

	// cmu guards the reverse index used by LeaveAll.
	cmu   sync.Mutex
	conns map[string]map[string]struct{}
}

type room struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// NewRooms builds an empty directory.
func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]*room),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds connID to roomID, creating the room if absent. Idempotent.
func (d *Rooms) Join(connID, roomID string) {
	for {
		rm := d.getOrCreate(roomID)
		rm.mu.Lock()
		rm.members[connID] = struct{}{}
		rm.mu.Unlock()

		// A concurrent last-leave may have collected this entry between the
		// table lookup and the insert; retry against the fresh entry.
		d.mu.RLock()
		current := d.rooms[roomID] == rm
		d.mu.RUnlock()
		if current {
			break
		}
	}

	d.cmu.Lock()
	set := d.conns[connID]
	if set == nil {
		set = make(map[string]struct{})
		d.conns[connID] = set
	}
	set[roomID] = struct{}{}
	d.cmu.Unlock()
}

// Leave removes connID from roomID. Leaving a room never joined is a no-op.
func (d *Rooms) Leave(connID, roomID string) {
	d.cmu.Lock()
	if set := d.conns[connID]; set != nil {
		delete(set, roomID)
		if len(set) == 0 {
			delete(d.conns, connID)
		}
	}
	d.cmu.Unlock()

	d.removeMember(connID, roomID)
}

// LeaveAll removes connID from every room it belongs to.
func (d *Rooms) LeaveAll(connID string) {
	d.cmu.Lock()
	set := d.conns[connID]
	delete(d.conns, connID)
	d.cmu.Unlock()

	for roomID := range set {
		d.removeMember(connID, roomID)
	}
}

// Members returns a point-in-time snapshot of a room's member ids. A missing
// room yields an empty snapshot.
func (d *Rooms) Members(roomID string) []string {
	d.mu.RLock()
	rm := d.rooms[roomID]
	d.mu.RUnlock()
	if rm == nil {
		return nil
	}
	rm.mu.RLock()
	out := make([]string, 0, len(rm.members))
	for id := range rm.members {
		out = append(out, id)
	}
	rm.mu.RUnlock()
	return out
}

// IsMember reports whether connID currently belongs to roomID.
func (d *Rooms) IsMember(connID, roomID string) bool {
	d.mu.RLock()
	rm := d.rooms[roomID]
	d.mu.RUnlock()
	if rm == nil {
		return false
	}
	rm.mu.RLock()
	_, ok := rm.members[connID]
	rm.mu.RUnlock()
	return ok
}

// RoomsOf returns a snapshot of the room ids connID belongs to.
func (d *Rooms) RoomsOf(connID string) []string {
	d.cmu.Lock()
	defer d.cmu.Unlock()
	set := d.conns[connID]
	out := make([]string, 0, len(set))
	for roomID := range set {
		out = append(out, roomID)
	}
	return out
}

func (d *Rooms) getOrCreate(roomID string) *room {
	d.mu.RLock()
	rm := d.rooms[roomID]
	d.mu.RUnlock()
	if rm != nil {
		return rm
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if rm = d.rooms[roomID]; rm == nil {
		rm = &room{members: make(map[string]struct{})}
		d.rooms[roomID] = rm
	}
	return rm
}

func (d *Rooms) removeMember(connID, roomID string) {
	d.mu.RLock()
	rm := d.rooms[roomID]
	d.mu.RUnlock()
	if rm == nil {
		return
	}
	rm.mu.Lock()
	delete(rm.members, connID)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty {
		d.mu.Lock()
		if cur := d.rooms[roomID]; cur == rm {
			cur.mu.RLock()
			if len(cur.members) == 0 {
				delete(d.rooms, roomID)
			}
			cur.mu.RUnlock()
		}
		d.mu.Unlock()
	}
}
