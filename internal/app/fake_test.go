package app

import (
	"sync"

	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/goccy/go-json"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
	closes int
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.closes++
	c.mu.Unlock()
}

func (c *fakeConn) closeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type received struct {
	Type    string
	Payload json.RawMessage
}

func (c *fakeConn) messages() []received {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]received, 0, len(c.frames))
	for _, f := range c.frames {
		env, err := protocol.Decode(f)
		if err != nil {
			panic(err)
		}
		out = append(out, received{Type: env.Type, Payload: env.Payload})
	}
	return out
}
