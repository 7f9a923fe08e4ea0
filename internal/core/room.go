package core

import (
	"sync"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is a threadsafe in-memory room: membership plus the shared video and
// playback state. It never closes adapter-owned sinks.
//
// Membership mutation goes through the RoomStore so that add/remove and the
// empty-room check stay one atomic unit; playback and video updates only take
// the room's own lock.
type Room struct {
	id domain.RoomID

	mu        sync.RWMutex
	members   map[domain.ParticipantID]MessageSink
	videoRef  string
	videoKind domain.VideoKind
	playback  domain.PlaybackState
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{
		id:        id,
		members:   make(map[domain.ParticipantID]MessageSink),
		videoKind: domain.VideoNone,
		playback:  domain.DefaultPlaybackState(),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) MemberIDs() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ParticipantID, 0, len(r.members))
	for pid := range r.members {
		out = append(out, pid)
	}
	return out
}

func (r *Room) AddMember(pid domain.ParticipantID, sink MessageSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[pid] = sink
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("pid", string(pid)).Msg("member added")
}

func (r *Room) RemoveMember(pid domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, pid)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("pid", string(pid)).Msg("member removed")
}

// ApplyPlayback mutates the shared playback state through the pure Apply
// function. Last-writer-wins across concurrent senders.
func (r *Room) ApplyPlayback(e domain.PlaybackEvent) domain.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playback = Apply(r.playback, e)
	return r.playback
}

// SetVideo swaps the active video and resets playback to defaults. Ref and
// kind are always written together.
func (r *Room) SetVideo(ref string, kind domain.VideoKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videoRef = ref
	r.videoKind = kind
	r.playback = domain.DefaultPlaybackState()
}

// Snapshot is a read-only copy of the shared room state.
type Snapshot struct {
	VideoRef  string
	VideoKind domain.VideoKind
	Playback  domain.PlaybackState
}

func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{VideoRef: r.videoRef, VideoKind: r.videoKind, Playback: r.playback}
}

// Broadcast fans a frame out to every member except from. Delivery is
// best-effort: a member whose sink refuses the frame is skipped.
func (r *Room) Broadcast(from domain.ParticipantID, f Frame) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sent, dropped := 0, 0
	for pid, sink := range r.members {
		if pid == from {
			continue
		}
		if err := sink.TrySend(f); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("from", string(from)).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
	return sent
}

// BroadcastAll fans a frame out to every member, sender included.
func (r *Room) BroadcastAll(f Frame) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sent := 0
	for _, sink := range r.members {
		if err := sink.TrySend(f); err != nil {
			continue
		}
		sent++
	}
	return sent
}
