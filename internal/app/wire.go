package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

// Outbound message types. Inbound types live in the ws adapter; these are the
// ones the coordinator emits.
const (
	msgRoomState    = "room-state"
	msgUserJoined   = "user-joined"
	msgUserLeft     = "user-left"
	msgVideoEvent   = "video-event"
	msgVideoChanged = "video-changed"
	msgChat         = "chat-message"
)

type wireUser struct {
	UserID   domain.ParticipantID `json:"userId"`
	Username string               `json:"username"`
}

type roomStateMsg struct {
	Type          string               `json:"type"`
	Video         string               `json:"video"`
	VideoType     domain.VideoKind     `json:"videoType"`
	PlaybackState domain.PlaybackState `json:"playbackState"`
	Users         []wireUser           `json:"users"`
}

type userEventMsg struct {
	Type     string               `json:"type"`
	UserID   domain.ParticipantID `json:"userId"`
	Username string               `json:"username"`
}

type videoEventMsg struct {
	Type string               `json:"type"`
	Data domain.PlaybackEvent `json:"data"`
}

type videoChangedMsg struct {
	Type      string           `json:"type"`
	VideoRef  string           `json:"videoRef"`
	VideoType domain.VideoKind `json:"videoType"`
	Title     string           `json:"title,omitempty"`
}

type chatMsg struct {
	Type      string               `json:"type"`
	UserID    domain.ParticipantID `json:"userId"`
	Username  string               `json:"username"`
	Message   string               `json:"message"`
	Timestamp int64                `json:"timestamp"`
}

type signalMsg struct {
	Type    string               `json:"type"`
	Payload json.RawMessage      `json:"payload"`
	From    domain.ParticipantID `json:"from"`
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.wire").Msg("encode outbound message")
		return nil, false
	}
	return b, true
}
