package signal

import (
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
)

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.send(c, protocol.TypePong, nil)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, c *WsSignalConn) {
	resp := protocol.WhoAmI{ClientID: sid}
	if code, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.RoomID = code
	}
	ctl.send(c, protocol.TypeWhoAmI, resp)
}
