// Package domain contains entity without logic, just meta-data
package domain

const (
	MaxRoomIDLen   = 36
	MaxUsernameLen = 36
)

// ParticipantID identifies one live connection. A new one is minted per
// connection; it is never reused.
type ParticipantID string

type Participant struct {
	ID       ParticipantID `json:"userId"`
	Username string        `json:"username"`
}

// ClampUsername truncates instead of rejecting: display names are arbitrary
// and non-unique, an overlong one is just cut down.
func ClampUsername(name string) string {
	if len(name) > MaxUsernameLen {
		return name[:MaxUsernameLen]
	}
	return name
}
