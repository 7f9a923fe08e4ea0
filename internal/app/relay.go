package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/domain"
)

// Relay forwards an opaque call-negotiation payload to one named target,
// stamped with the sender's identity. Fire-and-forget: no room check, no
// persistence, and a missing or slow target drops the message with no
// feedback to the sender.
func (c *Coordinator) Relay(kind string, target domain.ParticipantID, payload json.RawMessage, from domain.ParticipantID) {
	sink, ok := c.Registry.Sink(target)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("kind", kind).Str("target", string(target)).Msg("signal target not connected, dropped")
		return
	}
	if f, ok := encode(signalMsg{Type: kind, Payload: payload, From: from}); ok {
		_ = sink.TrySend(f)
	}
}
