package core

// Frame is a raw outbound payload, one JSON object per frame.
type Frame []byte

// SignalConn abstracts the per-client messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}
