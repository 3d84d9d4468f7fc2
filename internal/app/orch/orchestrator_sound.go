package orch

import (
	"errors"

	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
)

func (o *Orchestrator) SelectInstrument(sid core.SessionID, instrument string) error {
	if o.Draining() {
		return app.ErrShuttingDown
	}
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return app.ErrNotInRoom
	}
	room, ok := o.Rooms.GetRoom(code)
	if !ok {
		return app.ErrNotInRoom
	}
	err := room.SelectInstrument(sid, instrument, o.notify)
	if errors.Is(err, core.ErrNotMember) {
		return app.ErrNotInRoom
	}
	return err
}

// PlaySound relays the event to the other members of sid's room. Outside a
// room, or while draining, the event is dropped and ok is false.
func (o *Orchestrator) PlaySound(sid core.SessionID, instrument, sound string) (res core.PublishResult, ok bool) {
	if o.Draining() {
		return res, false
	}
	code, _, inRoom := o.Registry.RoomOf(sid)
	if !inRoom {
		return res, false
	}
	room, exists := o.Rooms.GetRoom(code)
	if !exists {
		return res, false
	}
	ev := protocol.SoundPlayed{SenderID: sid, Instrument: instrument, Sound: sound}
	room.View(func(v core.View) {
		res = o.Broadcaster.Relay(v, sid, ev)
	})
	return res, true
}
