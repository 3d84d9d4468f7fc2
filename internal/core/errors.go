package core

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrRoomClosed        = errors.New("room is closed")
	ErrAlreadyMember     = errors.New("already a member of this room")
	ErrNotMember         = errors.New("not a member of this room")
	ErrInvalidInstrument = errors.New("invalid instrument")

	// Returned by SignalConnection.TrySend.
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)
