package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

// RoomStore owns all live rooms. A room exists in the store iff its member
// set is non-empty; Join and Leave keep that invariant by doing membership
// mutation and the empty-check under the store lock, so a leaving last member
// can never race a fresh join into seeing a half-dead room.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomID]*core.Room)}
}

func (s *RoomStore) Get(id domain.RoomID) (*core.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// GetOrCreate returns the existing room or creates one with defaults.
func (s *RoomStore) GetOrCreate(id domain.RoomID) *core.Room {
	s.mu.RLock()
	room, ok := s.rooms[id]
	s.mu.RUnlock()
	if ok {
		return room
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id)
}

func (s *RoomStore) getOrCreateLocked(id domain.RoomID) *core.Room {
	if room, ok := s.rooms[id]; ok {
		return room
	}
	room := core.NewRoom(id)
	s.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

// Join atomically resolves (or creates) the room and adds the member.
func (s *RoomStore) Join(id domain.RoomID, pid domain.ParticipantID, sink core.MessageSink) *core.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.getOrCreateLocked(id)
	room.AddMember(pid, sink)
	return room
}

// Leave atomically removes the member and drops the room if it emptied.
// Reports whether the room was removed.
func (s *RoomStore) Leave(id domain.RoomID, pid domain.ParticipantID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return false
	}
	room.RemoveMember(pid)
	return s.removeIfEmptyLocked(id, room)
}

// RemoveIfEmpty drops the room only if its member set is empty; no-op
// otherwise.
func (s *RoomStore) RemoveIfEmpty(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return false
	}
	return s.removeIfEmptyLocked(id, room)
}

func (s *RoomStore) removeIfEmptyLocked(id domain.RoomID, room *core.Room) bool {
	if room.MemberCount() > 0 {
		return false
	}
	delete(s.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
	return true
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"memberCount"`
}

func (s *RoomStore) List() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for id, room := range s.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: room.MemberCount()})
	}
	return out
}
