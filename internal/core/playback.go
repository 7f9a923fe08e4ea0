package core

import "github.com/dkeye/watchparty/internal/domain"

// Apply advances a room's playback state by one event. Pure: the caller owns
// locking and persistence of the result.
//
// Absent optional fields never clear an existing value; only a video change
// resets the state (see Room.SetVideo).
func Apply(s domain.PlaybackState, e domain.PlaybackEvent) domain.PlaybackState {
	switch e.Action {
	case domain.ActionPlay:
		s.IsPlaying = true
		if e.CurrentTime != nil {
			s.CurrentTime = *e.CurrentTime
		}
	case domain.ActionPause:
		s.IsPlaying = false
		if e.CurrentTime != nil {
			s.CurrentTime = *e.CurrentTime
		}
	case domain.ActionSeek:
		if e.CurrentTime != nil {
			s.CurrentTime = *e.CurrentTime
		}
	case domain.ActionRateChange:
		if e.PlaybackRate != nil {
			s.PlaybackRate = *e.PlaybackRate
		}
	}
	return s
}
