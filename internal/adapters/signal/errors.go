package signal

import (
	"errors"

	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/protocol"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// errorMessage maps a handler error to the text sent to the client.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, protocol.ErrMalformedEnvelope), errors.Is(err, protocol.ErrInvalidPayload):
		return "Invalid message format"
	case errors.Is(err, ErrUnknownMessageType):
		return "Unknown message type"
	case errors.Is(err, app.ErrAlreadyInRoom):
		return "Already in a room"
	case errors.Is(err, app.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, app.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, app.ErrInvalidInstrument):
		return "Invalid instrument"
	case errors.Is(err, app.ErrNotInRoom):
		return "Not in a valid room"
	case errors.Is(err, app.ErrRateLimited):
		return "Too many requests"
	case errors.Is(err, app.ErrShuttingDown):
		return "Server is shutting down"
	default:
		return "Internal server error"
	}
}
