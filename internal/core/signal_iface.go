package core

// Frame is one encoded outbound message.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking. It fails with ErrConnClosed once the
	// connection is closing and with ErrBackpressure when its buffer is full.
	TrySend(f Frame) error
	Close()
}
