package domain

// PlaybackAction is the closed set of playback controls a member can emit.
type PlaybackAction string

const (
	ActionPlay       PlaybackAction = "play"
	ActionPause      PlaybackAction = "pause"
	ActionSeek       PlaybackAction = "seek"
	ActionRateChange PlaybackAction = "rate-change"
)

func (a PlaybackAction) Known() bool {
	switch a {
	case ActionPlay, ActionPause, ActionSeek, ActionRateChange:
		return true
	}
	return false
}

// PlaybackEvent is one playback control as sent on the wire. Pointer fields
// distinguish absent from zero: an absent field leaves the corresponding
// state field untouched.
type PlaybackEvent struct {
	Action       PlaybackAction `json:"type"`
	CurrentTime  *float64       `json:"currentTime,omitempty"`
	PlaybackRate *float64       `json:"playbackRate,omitempty"`
}
