package core

import "sync"

// roomIndex is the room membership index with forward (room to connections)
// and reverse (connection to room) lookup. A connection belongs to at most
// one room; a room exists exactly while it has members.
type roomIndex struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]struct{}
	roomFor map[string]string
}

func newRoomIndex() *roomIndex {
	return &roomIndex{
		rooms:   make(map[string]map[string]struct{}),
		roomFor: make(map[string]string),
	}
}

// join adds a connection to the room's member set, creating the room
// implicitly. Joining while in another room moves the connection.
func (x *roomIndex) join(roomID, connID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if prev, ok := x.roomFor[connID]; ok && prev != roomID {
		x.removeLocked(prev, connID)
	}
	if x.rooms[roomID] == nil {
		x.rooms[roomID] = make(map[string]struct{})
	}
	x.rooms[roomID][connID] = struct{}{}
	x.roomFor[connID] = roomID
}

// leave removes the connection from the room. Leaving a room the connection
// is not in is a silent no-op; disconnect and leave signals can race.
func (x *roomIndex) leave(roomID, connID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.roomFor[connID] != roomID {
		return
	}
	x.removeLocked(roomID, connID)
	delete(x.roomFor, connID)
}

func (x *roomIndex) removeLocked(roomID, connID string) {
	if members, ok := x.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(x.rooms, roomID)
		}
	}
}

// members returns a snapshot of the room's connection ids.
func (x *roomIndex) members(roomID string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	members := x.rooms[roomID]
	if len(members) == 0 {
		return nil
	}
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// roomOf returns the room a connection is in, if any.
func (x *roomIndex) roomOf(connID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	roomID, ok := x.roomFor[connID]
	return roomID, ok
}

// size returns the number of non-empty rooms.
func (x *roomIndex) size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.rooms)
}
