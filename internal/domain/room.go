package domain

// RoomID is a client-supplied, uninterpreted room identifier. First join
// creates the room.
type RoomID string

// ClampRoomID truncates overlong identifiers; no other validation is applied.
func ClampRoomID(raw string) RoomID {
	if len(raw) > MaxRoomIDLen {
		raw = raw[:MaxRoomIDLen]
	}
	return RoomID(raw)
}

// VideoKind tags the active video reference of a room.
type VideoKind string

const (
	VideoNone     VideoKind = "none"
	VideoUpload   VideoKind = "upload"
	VideoExternal VideoKind = "external"
)

// PlaybackState is the shared playback position of a room. One per room,
// last-writer-wins.
type PlaybackState struct {
	IsPlaying    bool    `json:"isPlaying"`
	CurrentTime  float64 `json:"currentTime"`
	PlaybackRate float64 `json:"playbackRate"`
}

func DefaultPlaybackState() PlaybackState {
	return PlaybackState{IsPlaying: false, CurrentTime: 0, PlaybackRate: 1}
}
