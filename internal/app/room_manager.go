package app

import (
	"sync"

	"docuhub/internal/core"
	"docuhub/internal/domain"
)

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.DocumentID]core.RoomService
}

func NewRoomManager() core.RoomFactory {
	return &RoomManagerImpl{rooms: make(map[domain.DocumentID]core.RoomService)}
}

// Add looks up or creates the room and inserts the member under the
// manager lock. Holding the lock across both steps keeps the insert
// serialized against Drop: a last-member leave can run before or after,
// never between, so the joiner always lands in the room the map knows.
func (f *RoomManagerImpl) Add(id domain.DocumentID, sid core.SessionID, ms core.MemberSession) core.RoomService {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		room = core.NewRoomService(id)
		f.rooms[id] = room
	}
	room.AddMember(sid, ms)
	return room
}

func (f *RoomManagerImpl) Get(id domain.DocumentID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{Document: id, MemberCount: r.MemberCount()})
	}
	return out
}

// Drop discards an empty room. Dropping a room that regained a member in
// the meantime is prevented by the count re-check under the write lock.
func (f *RoomManagerImpl) Drop(id domain.DocumentID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[id]; ok && room.MemberCount() == 0 {
		delete(f.rooms, id)
	}
}
