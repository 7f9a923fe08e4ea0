package core

// Frame is one marshaled outbound message.
type Frame []byte

// MessageSink abstracts a participant's outbound transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type MessageSink interface {
	TrySend(Frame) error
	Close()
}
