package signal

import (
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSelectInstrument(sid core.SessionID, env protocol.Envelope) error {
	p, err := decodeValid[protocol.SelectInstrument](env)
	if err != nil {
		return err
	}
	return ctl.Orch.SelectInstrument(sid, p.Instrument)
}

// handlePlaySound relays a sound to the rest of the room. Over-limit and
// out-of-room sounds are dropped without a reply.
func (ctl *SignalWSController) handlePlaySound(sid core.SessionID, c *WsSignalConn, env protocol.Envelope) error {
	p, err := decodeValid[protocol.PlaySound](env)
	if err != nil {
		return err
	}
	if !c.sounds.Allow() {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("sound throttled")
		return nil
	}
	res, ok := ctl.Orch.PlaySound(sid, p.Instrument, p.Sound)
	if ok && len(res.Dropped) > 0 {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Int("sent", res.SendTo).Int("dropped", len(res.Dropped)).Msg("sound relay partial")
	}
	return nil
}
