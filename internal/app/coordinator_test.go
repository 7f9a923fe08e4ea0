package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

type fakeSink struct {
	mu     sync.Mutex
	frames []core.Frame
	refuse bool
}

func (s *fakeSink) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuse {
		return errors.New("refused")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *fakeSink) Close() {}

// messages decodes every captured frame.
func (s *fakeSink) messages(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.frames))
	for _, f := range s.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (s *fakeSink) byType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range s.messages(t) {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

func newCoordinator() *Coordinator {
	return NewCoordinator(NewRegistry(), NewRoomStore())
}

func join(t *testing.T, c *Coordinator, pid domain.ParticipantID, room domain.RoomID, name string) *fakeSink {
	t.Helper()
	sink := &fakeSink{}
	c.Connect(pid, sink)
	require.NoError(t, c.Join(pid, room, name))
	return sink
}

func ptr(v float64) *float64 { return &v }

func TestJoin_CallerGetsRoomSnapshot(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()

	sink := join(t, c, "a", "r1", "alice")

	states := sink.byType(t, "room-state")
	req.Len(states, 1)
	state := states[0]
	req.Equal("", state["video"])
	req.Equal("none", state["videoType"])
	pb := state["playbackState"].(map[string]any)
	req.Equal(false, pb["isPlaying"])
	req.Equal(0.0, pb["currentTime"])
	req.Equal(1.0, pb["playbackRate"])
	users := state["users"].([]any)
	req.Len(users, 1)
	u := users[0].(map[string]any)
	req.Equal("a", u["userId"])
	req.Equal("alice", u["username"])
}

func TestJoin_ExistingMembersAreNotified(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := join(t, c, "a", "r1", "alice")
	a.reset()

	b := join(t, c, "b", "r1", "bob")

	// A hears about B; B only gets its snapshot.
	joined := a.byType(t, "user-joined")
	req.Len(joined, 1)
	req.Equal("b", joined[0]["userId"])
	req.Equal("bob", joined[0]["username"])
	req.Empty(b.byType(t, "user-joined"))

	// B's snapshot lists both members.
	states := b.byType(t, "room-state")
	req.Len(states, 1)
	req.Len(states[0]["users"].([]any), 2)
}

func TestJoin_DoubleJoinRejectedWithoutMutation(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	sink := join(t, c, "a", "r1", "alice")
	sink.reset()

	err := c.Join("a", "r2", "alice2")

	req.ErrorIs(err, ErrAlreadyJoined)
	_, ok := c.Rooms.Get("r2")
	req.False(ok)
	rec, _ := c.Registry.Lookup("a")
	req.Equal(domain.RoomID("r1"), rec.Room)
	req.Equal("alice", rec.Username)
	req.Empty(sink.byType(t, "room-state"))
}

func TestJoin_BeforeConnectFails(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()

	req.ErrorIs(c.Join("ghost", "r1", "x"), ErrNotConnected)
}

func TestPlaybackEvent_UpdatesStateAndSkipsSender(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := join(t, c, "a", "r1", "alice")
	b := join(t, c, "b", "r1", "bob")
	a.reset()
	b.reset()

	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionPlay})
	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionPause})
	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionSeek, CurrentTime: ptr(42)})

	room, ok := c.Rooms.Get("r1")
	req.True(ok)
	req.Equal(domain.PlaybackState{IsPlaying: false, CurrentTime: 42, PlaybackRate: 1}, room.Snapshot().Playback)

	// The receiver gets the original events, the sender gets nothing back.
	req.Empty(a.messages(t))
	events := b.byType(t, "video-event")
	req.Len(events, 3)
	last := events[2]["data"].(map[string]any)
	req.Equal("seek", last["type"])
	req.Equal(42.0, last["currentTime"])
}

func TestPlaybackEvent_BeforeJoinIsDropped(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	sink := &fakeSink{}
	c.Connect("a", sink)

	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionPlay})

	req.Empty(sink.messages(t))
	req.Empty(c.Rooms.List())
}

func TestChat_ReachesEveryoneIncludingSender(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := join(t, c, "a", "r1", "alice")
	b := join(t, c, "b", "r1", "bob")
	a.reset()
	b.reset()

	c.Chat("a", "hello there")

	for _, sink := range []*fakeSink{a, b} {
		msgs := sink.byType(t, "chat-message")
		req.Len(msgs, 1)
		req.Equal("a", msgs[0]["userId"])
		req.Equal("alice", msgs[0]["username"])
		req.Equal("hello there", msgs[0]["message"])
		req.Greater(msgs[0]["timestamp"].(float64), 0.0)
	}
}

func TestChangeVideo_ExternalReachesEveryoneAndResetsState(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := join(t, c, "a", "r1", "alice")
	b := join(t, c, "b", "r1", "bob")
	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionPlay, CurrentTime: ptr(300)})
	a.reset()
	b.reset()

	c.ChangeVideo("a", "abc123", domain.VideoExternal, "Demo")

	for _, sink := range []*fakeSink{a, b} {
		msgs := sink.byType(t, "video-changed")
		req.Len(msgs, 1)
		req.Equal("abc123", msgs[0]["videoRef"])
		req.Equal("external", msgs[0]["videoType"])
		req.Equal("Demo", msgs[0]["title"])
	}

	room, _ := c.Rooms.Get("r1")
	snap := room.Snapshot()
	req.Equal("abc123", snap.VideoRef)
	req.Equal(domain.VideoExternal, snap.VideoKind)
	req.Equal(domain.DefaultPlaybackState(), snap.Playback)
}

func TestChangeVideo_UploadResetsPriorPlayback(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := join(t, c, "a", "r1", "alice")
	c.PlaybackEvent("a", domain.PlaybackEvent{Action: domain.ActionRateChange, PlaybackRate: ptr(2)})
	a.reset()

	c.ChangeVideo("a", "f-1.mp4", domain.VideoUpload, "holiday.mp4")

	msgs := a.byType(t, "video-changed")
	req.Len(msgs, 1)
	req.Equal("f-1.mp4", msgs[0]["videoRef"])
	req.Equal("upload", msgs[0]["videoType"])
	req.Equal("holiday.mp4", msgs[0]["title"])

	room, _ := c.Rooms.Get("r1")
	req.Equal(domain.DefaultPlaybackState(), room.Snapshot().Playback)
}

func TestDisconnect_LastMemberRemovesRoom(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	join(t, c, "a", "r1", "alice")

	c.Disconnect("a")

	_, ok := c.Rooms.Get("r1")
	req.False(ok)
	_, ok = c.Registry.Lookup("a")
	req.False(ok)

	// Calling again is a no-op.
	c.Disconnect("a")
}

func TestDisconnect_RemainingMembersAreNotified(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	join(t, c, "a", "r1", "alice")
	b := join(t, c, "b", "r1", "bob")
	b.reset()

	c.Disconnect("a")

	left := b.byType(t, "user-left")
	req.Len(left, 1)
	req.Equal("a", left[0]["userId"])
	req.Equal("alice", left[0]["username"])

	room, ok := c.Rooms.Get("r1")
	req.True(ok)
	req.Equal(1, room.MemberCount())
}

func TestDisconnect_DepartedAbsentFromLaterSnapshot(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	join(t, c, "a", "r1", "alice")
	join(t, c, "b", "r1", "bob")

	c.Disconnect("a")
	cc := join(t, c, "c", "r1", "carol")

	states := cc.byType(t, "room-state")
	req.Len(states, 1)
	var ids []string
	for _, u := range states[0]["users"].([]any) {
		ids = append(ids, u.(map[string]any)["userId"].(string))
	}
	req.ElementsMatch([]string{"b", "c"}, ids)
}

func TestRelay_DeliversToTargetOnly(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a, b, other := &fakeSink{}, &fakeSink{}, &fakeSink{}
	c.Connect("a", a)
	c.Connect("b", b)
	c.Connect("x", other)

	payload := json.RawMessage(`{"sdp":"v=0..."}`)
	c.Relay("signal-offer", "b", payload, "a")

	msgs := b.byType(t, "signal-offer")
	req.Len(msgs, 1)
	req.Equal("a", msgs[0]["from"])
	req.Equal("v=0...", msgs[0]["payload"].(map[string]any)["sdp"])
	req.Empty(a.messages(t))
	req.Empty(other.messages(t))
}

func TestRelay_WorksWithoutRoomMembership(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a, b := &fakeSink{}, &fakeSink{}
	c.Connect("a", a)
	c.Connect("b", b)

	// Neither side ever joined a room; the relay does not care.
	c.Relay("signal-ice", "b", json.RawMessage(`{"candidate":"c"}`), "a")

	req.Len(b.byType(t, "signal-ice"), 1)
}

func TestRelay_MissingTargetIsSilentlyDropped(t *testing.T) {
	req := require.New(t)
	c := newCoordinator()
	a := &fakeSink{}
	c.Connect("a", a)

	c.Relay("signal-answer", "nobody", json.RawMessage(`{}`), "a")

	// No error surfaces and the sender observes nothing.
	req.Empty(a.messages(t))
}
