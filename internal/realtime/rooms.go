package realtime

import "sync"

// Rooms tracks named broadcast groups, one per hospital. Membership is a set:
// joining twice is a no-op, leaving a room never joined is a no-op, and a room
// vanishes when its last member leaves.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{} // room -> set of connID
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[string]struct{})}
}

// Join adds connID to the room, creating the room on first join.
func (r *Rooms) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[string]struct{})
		r.members[room] = set
	}
	set[connID] = struct{}{}
}

// Leave removes connID from the room. Safe to call if not a member.
func (r *Rooms) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.members[room]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// LeaveAll removes connID from every room it belongs to. Called on
// disconnect so dead connections never linger in member sets.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room, set := range r.members {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

// MembersOf returns a snapshot of the room's members; empty if the room does
// not exist.
func (r *Rooms) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.members[room]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out
}
