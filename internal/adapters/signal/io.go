package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/metrics"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait))
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing connection")
				_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				c.Close()
				return
			}
		}
	}
}

// readPump owns the endpoint: every message of sid is handled here in order,
// and the disconnect transition runs here when the socket goes away.
func (ctl *SignalWSController) readPump(sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		ctl.roomLimiter.Forget(sid)
		ctl.untrack(sid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad envelope")
		ctl.finish(sid, c, "invalid", err)
		return
	}

	switch env.Type {
	case protocol.TypeCreateRoom:
		err = ctl.handleCreateRoom(sid)
	case protocol.TypeJoinRoom:
		err = ctl.handleJoin(sid, env)
	case protocol.TypeSelectInstrument:
		err = ctl.handleSelectInstrument(sid, env)
	case protocol.TypePlaySound:
		err = ctl.handlePlaySound(sid, c, env)
	case protocol.TypeLeaveRoom:
		err = ctl.handleLeave(sid)
	case protocol.TypePing:
		ctl.handlePing(c)
	case protocol.TypeWhoAmI:
		ctl.handleWhoAmI(sid, c)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
		env.Type = "unknown"
	}
	ctl.finish(sid, c, env.Type, err)
}

// finish replies with an error frame when err is set. The connection and all
// state stay as they are.
func (ctl *SignalWSController) finish(sid core.SessionID, c *WsSignalConn, kind string, err error) {
	if err == nil {
		metrics.Messages.WithLabelValues(kind, "ok").Inc()
		return
	}
	metrics.Messages.WithLabelValues(kind, "error").Inc()
	log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("request rejected")
	ctl.send(c, protocol.TypeError, protocol.Error{Message: errorMessage(err)})
}

func (ctl *SignalWSController) send(c *WsSignalConn, kind string, payload any) {
	if err := ctl.Orch.Broadcaster.Direct(c, kind, payload); err != nil && !errors.Is(err, core.ErrConnClosed) {
		log.Warn().Err(err).Str("module", "signal").Str("kind", kind).Msg("reply dropped")
	}
}
