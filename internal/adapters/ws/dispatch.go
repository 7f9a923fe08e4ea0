package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/domain"
)

// Inbound message types.
const (
	inJoinRoom      = "join-room"
	inVideoEvent    = "video-event"
	inExternalVideo = "change-external-video"
	inUploadedVideo = "change-uploaded-video"
	inChatMessage   = "chat-message"
	inSignalOffer   = "signal-offer"
	inSignalAnswer  = "signal-answer"
	inSignalICE     = "signal-ice"
)

func (ctl *Controller) handleMessage(pid domain.ParticipantID, c *Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case inJoinRoom:
		ctl.handleJoin(pid, c, data)
	case inVideoEvent:
		ctl.handleVideoEvent(pid, data)
	case inExternalVideo:
		ctl.handleExternalVideo(pid, c, data)
	case inUploadedVideo:
		ctl.handleUploadedVideo(pid, c, data)
	case inChatMessage:
		ctl.handleChat(pid, data)
	case inSignalOffer, inSignalAnswer, inSignalICE:
		ctl.handleSignal(pid, env.Type, data)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown message type")
	}
}

func (ctl *Controller) sendError(c *Conn, msg string) {
	b, err := json.Marshal(map[string]any{"type": "error", "error": msg})
	if err != nil {
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) handleJoin(pid domain.ParticipantID, c *Conn, data []byte) {
	var p struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Coord.Join(pid, domain.ClampRoomID(p.RoomID), p.Username); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *Controller) handleVideoEvent(pid domain.ParticipantID, data []byte) {
	var p struct {
		Data domain.PlaybackEvent `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad video event payload")
		return
	}
	if !p.Data.Action.Known() {
		log.Warn().Str("module", "ws").Str("action", string(p.Data.Action)).Msg("unknown playback action, dropped")
		return
	}
	ctl.Coord.PlaybackEvent(pid, p.Data)
}

func (ctl *Controller) handleExternalVideo(pid domain.ParticipantID, c *Conn, data []byte) {
	var p struct {
		VideoRef string `json:"videoRef"`
		Title    string `json:"title"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.VideoRef == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad external video payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Coord.ChangeVideo(pid, p.VideoRef, domain.VideoExternal, p.Title)
}

func (ctl *Controller) handleUploadedVideo(pid domain.ParticipantID, c *Conn, data []byte) {
	var p struct {
		FileRef  string `json:"fileRef"`
		FileName string `json:"fileName"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.FileRef == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad uploaded video payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if !ctl.Uploads.Exists(p.FileRef) {
		ctl.sendError(c, "unknown file")
		return
	}
	ctl.Coord.ChangeVideo(pid, p.FileRef, domain.VideoUpload, p.FileName)
}

func (ctl *Controller) handleChat(pid domain.ParticipantID, data []byte) {
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad chat payload")
		return
	}
	ctl.Coord.Chat(pid, p.Message)
}

func (ctl *Controller) handleSignal(pid domain.ParticipantID, kind string, data []byte) {
	var p struct {
		Target  string          `json:"target"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" {
		log.Error().Err(err).Str("module", "ws").Str("kind", kind).Msg("bad signal payload")
		return
	}
	ctl.Coord.Relay(kind, domain.ParticipantID(p.Target), p.Payload, pid)
}
