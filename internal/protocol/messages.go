package protocol

import (
	"fmt"

	"github.com/dkeye/Jam/internal/domain"
)

// Client -> server kinds.
const (
	TypeCreateRoom       = "create_room"
	TypeJoinRoom         = "join_room"
	TypeSelectInstrument = "select_instrument"
	TypePlaySound        = "play_sound"
	TypeLeaveRoom        = "leave_room"
	TypePing             = "ping"
	TypeWhoAmI           = "whoami"
)

// Server -> client kinds.
const (
	TypeConnectionAck   = "connection_ack"
	TypeRoomStateUpdate = "room_state_update"
	TypeSoundPlayed     = "sound_played"
	TypeError           = "error"
	TypeServerShutdown  = "server_shutdown"
	TypePong            = "pong"
)

type JoinRoom struct {
	RoomCode string `json:"roomCode"`
}

func (p JoinRoom) Validate() error {
	if p.RoomCode == "" {
		return fmt.Errorf("%w: roomCode required", ErrInvalidPayload)
	}
	return nil
}

type SelectInstrument struct {
	Instrument string `json:"instrument"`
}

func (p SelectInstrument) Validate() error {
	if p.Instrument == "" {
		return fmt.Errorf("%w: instrument required", ErrInvalidPayload)
	}
	return nil
}

type PlaySound struct {
	Instrument string `json:"instrument"`
	Sound      string `json:"sound"`
}

func (p PlaySound) Validate() error {
	if p.Instrument == "" || p.Sound == "" {
		return fmt.Errorf("%w: instrument and sound required", ErrInvalidPayload)
	}
	return nil
}

type ConnectionAck struct {
	ClientID domain.ClientID `json:"clientId"`
	Message  string          `json:"message"`
}

// Occupant is one slot of a room state update. Instrument is null until chosen.
type Occupant struct {
	ClientID   domain.ClientID    `json:"clientId"`
	Instrument *domain.Instrument `json:"instrument"`
}

type RoomStateUpdate struct {
	RoomID    domain.RoomCode `json:"roomId"`
	Occupants []Occupant      `json:"occupants"`
}

type SoundPlayed struct {
	SenderID   domain.ClientID `json:"senderId"`
	Instrument string          `json:"instrument"`
	Sound      string          `json:"sound"`
}

type Error struct {
	Message string `json:"message"`
}

type ServerShutdown struct {
	Message string `json:"message"`
}

type WhoAmI struct {
	ClientID domain.ClientID `json:"clientId"`
	RoomID   domain.RoomCode `json:"roomId,omitempty"`
}
