package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

type registryEntry struct {
	Username string
	Room     domain.RoomID
	Sink     core.MessageSink
}

// Record is a value copy of one registry entry. It carries the room id only,
// never a reference to the Room object, so a stale copy cannot keep a dead
// room reachable.
type Record struct {
	Username string
	Room     domain.RoomID
	Sink     core.MessageSink
}

// Registry maps live connections to their display name and current room.
type Registry struct {
	mu           sync.RWMutex
	participants map[domain.ParticipantID]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{participants: make(map[domain.ParticipantID]*registryEntry)}
}

// Bind creates the record for a freshly opened connection: no room, no name.
func (r *Registry) Bind(pid domain.ParticipantID, sink core.MessageSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[pid] = &registryEntry{Sink: sink}
	log.Info().Str("module", "app.registry").Str("pid", string(pid)).Msg("bound participant")
}

// Register inserts or overwrites room and display name for pid, keeping the
// bound sink. Display names are arbitrary: empty and duplicate are fine.
func (r *Registry) Register(pid domain.ParticipantID, room domain.RoomID, username string) {
	username = domain.ClampUsername(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.participants[pid]
	if !ok {
		e = &registryEntry{}
		r.participants[pid] = e
	}
	e.Room = room
	e.Username = username
	log.Info().Str("module", "app.registry").Str("pid", string(pid)).Str("room", string(room)).Str("username", username).Msg("registered participant")
}

func (r *Registry) Lookup(pid domain.ParticipantID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.participants[pid]
	if !ok {
		return Record{}, false
	}
	return Record{Username: e.Username, Room: e.Room, Sink: e.Sink}, true
}

func (r *Registry) Sink(pid domain.ParticipantID) (core.MessageSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[pid]; ok && e.Sink != nil {
		return e.Sink, true
	}
	return nil, false
}

func (r *Registry) Username(pid domain.ParticipantID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[pid]; ok {
		return e.Username
	}
	return ""
}

// Remove deletes the record; idempotent.
func (r *Registry) Remove(pid domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, pid)
	log.Info().Str("module", "app.registry").Str("pid", string(pid)).Msg("removed participant")
}
