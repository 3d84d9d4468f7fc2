package signal

import (
	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/rs/zerolog/log"
)

type validator interface {
	Validate() error
}

// decodeValid unpacks and checks a payload before any state is consulted,
// so a malformed request is always a format error.
func decodeValid[T validator](env protocol.Envelope) (T, error) {
	var p T
	if err := protocol.DecodePayload(env, &p); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (ctl *SignalWSController) handleCreateRoom(sid core.SessionID) error {
	if !ctl.roomLimiter.Allow(sid) {
		return app.ErrRateLimited
	}
	code, err := ctl.Orch.CreateRoom(sid)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("create")
	return nil
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, env protocol.Envelope) error {
	p, err := decodeValid[protocol.JoinRoom](env)
	if err != nil {
		return err
	}
	if !ctl.roomLimiter.Allow(sid) {
		return app.ErrRateLimited
	}
	code, err := ctl.Orch.JoinRoom(sid, p.RoomCode)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("join")
	return nil
}

// handleLeave returns the endpoint to the lobby. The connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID) error {
	if !ctl.roomLimiter.Allow(sid) {
		return app.ErrRateLimited
	}
	return ctl.Orch.LeaveRoom(sid)
}
