package app

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

var (
	ErrAlreadyJoined = errors.New("already joined a room")
	ErrNotConnected  = errors.New("participant not connected")
)

// Coordinator orchestrates join/leave, event ingestion, state mutation and
// fan-out. All side effects live here; the stores hold state, the adapter
// holds sockets.
//
// Failures never cross participants: a bad request is answered (or dropped)
// toward its sender only, and the connection stays open.
type Coordinator struct {
	Registry *Registry
	Rooms    *RoomStore
}

func NewCoordinator(reg *Registry, rooms *RoomStore) *Coordinator {
	return &Coordinator{Registry: reg, Rooms: rooms}
}

// Connect binds a freshly opened connection. The participant has no room
// until it joins one.
func (c *Coordinator) Connect(pid domain.ParticipantID, sink core.MessageSink) {
	c.Registry.Bind(pid, sink)
}

// Join moves pid from unjoined to joined: registers it, adds it to the room
// (creating the room on first join), replies with the full room snapshot and
// tells the other members. A second join on the same connection mutates
// nothing and returns ErrAlreadyJoined.
func (c *Coordinator) Join(pid domain.ParticipantID, roomID domain.RoomID, username string) error {
	rec, ok := c.Registry.Lookup(pid)
	if !ok {
		return ErrNotConnected
	}
	if rec.Room != "" {
		log.Warn().Str("module", "app.coordinator").Str("pid", string(pid)).Str("room", string(rec.Room)).Msg("rejected double join")
		return ErrAlreadyJoined
	}

	c.Registry.Register(pid, roomID, username)
	room := c.Rooms.Join(roomID, pid, rec.Sink)

	snap := room.Snapshot()
	users := make([]wireUser, 0, room.MemberCount())
	for _, mid := range room.MemberIDs() {
		users = append(users, wireUser{UserID: mid, Username: c.Registry.Username(mid)})
	}
	if f, ok := encode(roomStateMsg{
		Type:          msgRoomState,
		Video:         snap.VideoRef,
		VideoType:     snap.VideoKind,
		PlaybackState: snap.Playback,
		Users:         users,
	}); ok {
		_ = rec.Sink.TrySend(f)
	}

	if f, ok := encode(userEventMsg{Type: msgUserJoined, UserID: pid, Username: c.Registry.Username(pid)}); ok {
		room.Broadcast(pid, f)
	}
	log.Info().Str("module", "app.coordinator").Str("pid", string(pid)).Str("room", string(roomID)).Msg("joined room")
	return nil
}

// resolveRoom looks up the sender's room. A miss is not an error: it covers
// the race between an in-flight event and a disconnect.
func (c *Coordinator) resolveRoom(pid domain.ParticipantID) (*core.Room, Record, bool) {
	rec, ok := c.Registry.Lookup(pid)
	if !ok || rec.Room == "" {
		log.Debug().Str("module", "app.coordinator").Str("pid", string(pid)).Msg("event from unjoined participant dropped")
		return nil, Record{}, false
	}
	room, ok := c.Rooms.Get(rec.Room)
	if !ok {
		log.Debug().Str("module", "app.coordinator").Str("pid", string(pid)).Str("room", string(rec.Room)).Msg("event for missing room dropped")
		return nil, Record{}, false
	}
	return room, rec, true
}

// PlaybackEvent applies one playback control to the sender's room and relays
// the original event, not the derived state, to everyone else there.
func (c *Coordinator) PlaybackEvent(pid domain.ParticipantID, e domain.PlaybackEvent) {
	room, _, ok := c.resolveRoom(pid)
	if !ok {
		return
	}
	room.ApplyPlayback(e)
	if f, ok := encode(videoEventMsg{Type: msgVideoEvent, Data: e}); ok {
		room.Broadcast(pid, f)
	}
}

// ChangeVideo swaps the room's active video, resets playback, and tells every
// member including the sender.
func (c *Coordinator) ChangeVideo(pid domain.ParticipantID, ref string, kind domain.VideoKind, title string) {
	room, _, ok := c.resolveRoom(pid)
	if !ok {
		return
	}
	room.SetVideo(ref, kind)
	if f, ok := encode(videoChangedMsg{Type: msgVideoChanged, VideoRef: ref, VideoType: kind, Title: title}); ok {
		room.BroadcastAll(f)
	}
	log.Info().Str("module", "app.coordinator").Str("pid", string(pid)).Str("room", string(room.ID())).Str("kind", string(kind)).Msg("video changed")
}

// Chat stamps the message with sender identity and server time and fans it
// out to the whole room, sender included. No filtering, no size limit.
func (c *Coordinator) Chat(pid domain.ParticipantID, text string) {
	room, rec, ok := c.resolveRoom(pid)
	if !ok {
		return
	}
	if f, ok := encode(chatMsg{
		Type:      msgChat,
		UserID:    pid,
		Username:  rec.Username,
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
	}); ok {
		room.BroadcastAll(f)
	}
}

// Disconnect tears a participant down: out of its room (dropping the room if
// it emptied, telling the remaining members otherwise) and out of the
// registry. Idempotent; this is also the leave path.
func (c *Coordinator) Disconnect(pid domain.ParticipantID) {
	rec, ok := c.Registry.Lookup(pid)
	if !ok {
		return
	}
	if rec.Room != "" {
		removed := c.Rooms.Leave(rec.Room, pid)
		if !removed {
			if room, ok := c.Rooms.Get(rec.Room); ok {
				if f, ok := encode(userEventMsg{Type: msgUserLeft, UserID: pid, Username: rec.Username}); ok {
					room.BroadcastAll(f)
				}
			}
		}
	}
	c.Registry.Remove(pid)
	log.Info().Str("module", "app.coordinator").Str("pid", string(pid)).Str("room", string(rec.Room)).Msg("participant disconnected")
}
