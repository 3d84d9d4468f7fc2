package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom makes a new room and puts sid in it.
func (o *Orchestrator) CreateRoom(sid core.SessionID) (domain.RoomCode, error) {
	if o.Draining() {
		return "", app.ErrShuttingDown
	}
	if code, _, ok := o.Registry.RoomOf(sid); ok {
		return "", fmt.Errorf("%w: %s", app.ErrAlreadyInRoom, code)
	}
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return "", errUnknownSession
	}

	room := o.Rooms.CreateRoom(domain.RoomCapacity)
	code := room.Room().Code
	if err := room.Join(sid, sess, o.notify); err != nil {
		o.Rooms.RemoveIfEmpty(code)
		return "", fmt.Errorf("join new room %s: %w", code, err)
	}
	o.Registry.UpdateRoom(sid, code)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("room created")
	return code, nil
}

// JoinRoom puts sid into the room named by raw (case-insensitive).
func (o *Orchestrator) JoinRoom(sid core.SessionID, raw string) (domain.RoomCode, error) {
	if o.Draining() {
		return "", app.ErrShuttingDown
	}
	if code, _, ok := o.Registry.RoomOf(sid); ok {
		return "", fmt.Errorf("%w: %s", app.ErrAlreadyInRoom, code)
	}
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return "", errUnknownSession
	}

	code := domain.NormalizeRoomCode(raw)
	room, ok := o.Rooms.GetRoom(code)
	if !ok {
		return "", fmt.Errorf("%w: %s", app.ErrRoomNotFound, code)
	}
	if err := room.Join(sid, sess, o.notify); err != nil {
		switch {
		case errors.Is(err, core.ErrRoomClosed):
			return "", fmt.Errorf("%w: %s", app.ErrRoomNotFound, code)
		case errors.Is(err, core.ErrAlreadyMember):
			return "", fmt.Errorf("%w: %s", app.ErrAlreadyInRoom, code)
		default:
			return "", err
		}
	}
	o.Registry.UpdateRoom(sid, code)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("joined room")
	return code, nil
}

// LeaveRoom is the explicit leave request; outside a room it is an error.
func (o *Orchestrator) LeaveRoom(sid core.SessionID) error {
	if o.Draining() {
		return app.ErrShuttingDown
	}
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return app.ErrNotInRoom
	}
	o.leave(sid, code)
	return nil
}

// leave is shared by explicit leave and disconnect. The remaining members get
// the new occupancy; an emptied room is dropped from the registry instead.
func (o *Orchestrator) leave(sid core.SessionID, code domain.RoomCode) {
	o.Registry.RemoveRoom(sid)
	room, ok := o.Rooms.GetRoom(code)
	if !ok {
		return
	}
	removed, empty := room.Leave(sid, o.notify)
	if empty {
		o.Rooms.RemoveIfEmpty(code)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Bool("removed", removed).Bool("room_empty", empty).Msg("left room")
}
