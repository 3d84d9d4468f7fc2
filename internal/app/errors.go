package app

import (
	"errors"

	"github.com/dkeye/Jam/internal/core"
)

var (
	ErrAlreadyInRoom     = errors.New("already in a room")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = core.ErrRoomFull
	ErrInvalidInstrument = core.ErrInvalidInstrument
	ErrNotInRoom         = errors.New("not in a room")
	ErrRateLimited       = errors.New("rate limited")
	ErrShuttingDown      = errors.New("server is shutting down")
)
