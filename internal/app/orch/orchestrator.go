// Package orch routes endpoint requests through the room state machine:
// an endpoint is either unassigned or in exactly one room.
package orch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/rs/zerolog/log"
)

var errUnknownSession = errors.New("unknown session")

type Orchestrator struct {
	Registry    *app.Registry
	Rooms       core.RoomManager
	Broadcaster *app.Broadcaster

	draining atomic.Bool
}

// Connect registers a freshly accepted endpoint in the unassigned state.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, sess, cancel)
}

// Disconnect runs the leave transition for sid, if it is in a room, and
// forgets the endpoint. It is safe to call more than once.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	if code, _, ok := o.Registry.RoomOf(sid); ok {
		o.leave(sid, code)
	}
	o.Registry.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

// Draining reports whether shutdown has begun.
func (o *Orchestrator) Draining() bool { return o.draining.Load() }

// BeginShutdown stops accepting state changes and tells every connected
// endpoint the server is going away.
func (o *Orchestrator) BeginShutdown(message string) core.PublishResult {
	o.draining.Store(true)
	snaps := o.Registry.Sessions()
	sessions := make([]core.MemberSession, 0, len(snaps))
	for _, s := range snaps {
		sessions = append(sessions, s.Session)
	}
	res := o.Broadcaster.All(sessions, protocol.TypeServerShutdown, protocol.ServerShutdown{Message: message})
	log.Info().Str("module", "orch").Int("notified", res.SendTo).Int("dropped", len(res.Dropped)).Msg("shutdown notice sent")
	return res
}

// Teardown drops all rooms. Call after connections are closed.
func (o *Orchestrator) Teardown() {
	o.Rooms.StopAll()
}

// Kick cancels the connection of sid; its read loop then disconnects it.
func (o *Orchestrator) Kick(sid core.SessionID) bool {
	return o.Registry.Cancel(sid)
}

func (o *Orchestrator) notify(v core.View) {
	o.Broadcaster.Occupancy(v)
}
