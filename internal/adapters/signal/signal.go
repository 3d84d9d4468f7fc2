package signal

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Jam/internal/app/orch"
	"github.com/dkeye/Jam/internal/config"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string

	RoomRateLimit    int
	RoomRateInterval time.Duration
	SoundRate        float64
	SoundBurst       int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:        cfg.ReadLimit,
		PingPeriod:       cfg.PingPeriod,
		PongWait:         cfg.PongWait,
		WriteWait:        cfg.WriteWait,
		SendBuffer:       cfg.SendBuffer,
		AllowedOrigins:   cfg.AllowedOrigins,
		RoomRateLimit:    cfg.RoomRateLimit,
		RoomRateInterval: cfg.RoomRateInterval,
		SoundRate:        cfg.SoundRate,
		SoundBurst:       cfg.SoundBurst,
	}
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	opts        Options
	upgrader    websocket.Upgrader
	roomLimiter *RoomRateLimiter

	// root outlives the server's signal context: connections are only torn
	// down by Shutdown.
	root      context.Context
	stopConns context.CancelFunc

	mu      sync.Mutex
	closing bool
	conns   map[core.SessionID]*WsSignalConn
	pumps   conc.WaitGroup
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	ctl := &SignalWSController{
		Orch:        o,
		opts:        opts,
		roomLimiter: NewRoomRateLimiter(opts.RoomRateLimit, opts.RoomRateInterval),
		conns:       make(map[core.SessionID]*WsSignalConn),
	}
	ctl.root, ctl.stopConns = context.WithCancel(context.Background())
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	return ctl
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	if len(ctl.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(ctl.opts.AllowedOrigins, r.Header.Get("Origin"))
}

type WsSignalConn struct {
	conn   *websocket.Conn
	send   chan core.Frame
	sounds *rate.Limiter

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func newWsSignalConn(ws *websocket.Conn, opts Options) *WsSignalConn {
	limit := rate.Inf
	if opts.SoundRate > 0 {
		limit = rate.Limit(opts.SoundRate)
	}
	return &WsSignalConn{
		conn:   ws,
		send:   make(chan core.Frame, opts.SendBuffer),
		sounds: rate.NewLimiter(limit, opts.SoundBurst),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// CloseGracefully stops accepting frames. The write pump flushes what is
// queued, then sends a close frame; the socket stays open for the peer's reply.
func (c *WsSignalConn) CloseGracefully() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Close stops sending and tears the socket down.
func (c *WsSignalConn) Close() {
	c.CloseGracefully()
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (ctl *SignalWSController) untrack(sid core.SessionID) {
	ctl.mu.Lock()
	delete(ctl.conns, sid)
	ctl.mu.Unlock()
}

func (ctl *SignalWSController) openConns() map[core.SessionID]*WsSignalConn {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	out := make(map[core.SessionID]*WsSignalConn, len(ctl.conns))
	for sid, c := range ctl.conns {
		out[sid] = c
	}
	return out
}

func (ctl *SignalWSController) HandleSignal(c *gin.Context) {
	if ctl.Orch.Draining() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	// Admission and Shutdown serialize on ctl.mu: a connection is either
	// tracked before shutdown starts, and so gets the notice, or refused.
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.closing {
		refuse(ws, ctl.opts.WriteWait)
		return
	}

	sid := domain.NewClientID()
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.opts)
	sess := core.NewMemberSession(sid, conn)
	ctx, cancel := context.WithCancel(ctl.root)
	ctl.Orch.Connect(sid, sess, cancel)
	ctl.conns[sid] = conn

	ctl.send(conn, protocol.TypeConnectionAck, protocol.ConnectionAck{
		ClientID: sid,
		Message:  "Connected to jam server",
	})

	ctl.pumps.Go(func() { ctl.writePump(ctx, conn) })
	ctl.pumps.Go(func() {
		defer cancel()
		ctl.readPump(sid, conn)
	})
}

func refuse(ws *websocket.Conn, wait time.Duration) {
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server is shutting down")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wait))
	_ = ws.Close()
	log.Info().Str("module", "signal").Msg("connection refused during shutdown")
}
