package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Jam/internal/app"
	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("closed")
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// drain returns and forgets everything received so far.
func (r *recorder) drain(t *testing.T) []protocol.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(r.frames))
	for _, f := range r.frames {
		env, err := protocol.Decode(f)
		require.NoError(t, err)
		out = append(out, env)
	}
	r.frames = nil
	return out
}

func lastState(t *testing.T, envs []protocol.Envelope) protocol.RoomStateUpdate {
	t.Helper()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == protocol.TypeRoomStateUpdate {
			var st protocol.RoomStateUpdate
			require.NoError(t, json.Unmarshal(envs[i].Payload, &st))
			return st
		}
	}
	t.Fatalf("no room_state_update among %d messages", len(envs))
	return protocol.RoomStateUpdate{}
}

type harness struct {
	o     *Orchestrator
	conns map[core.SessionID]*recorder
}

func newHarness(codes ...domain.RoomCode) *harness {
	i := 0
	gen := app.RandomCode
	if len(codes) > 0 {
		gen = func() domain.RoomCode {
			c := codes[i%len(codes)]
			i++
			return c
		}
	}
	return &harness{
		o: &Orchestrator{
			Registry:    app.NewRegistry(),
			Rooms:       app.NewRoomManager(app.WithCodeGenerator(gen)),
			Broadcaster: app.NewBroadcaster(app.DropPolicy{}),
		},
		conns: make(map[core.SessionID]*recorder),
	}
}

func (h *harness) connect(id core.SessionID) *recorder {
	rec := &recorder{}
	h.conns[id] = rec
	h.o.Connect(id, core.NewMemberSession(id, rec), nil)
	return rec
}

func TestScenario_JamSession(t *testing.T) {
	h := newHarness("WXYZ")
	a := h.connect("A")
	b := h.connect("B")

	code, err := h.o.CreateRoom("A")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("WXYZ"), code)
	assert.Equal(t, 1, h.o.Rooms.Count())
	st := lastState(t, a.drain(t))
	require.Len(t, st.Occupants, 1)
	assert.Nil(t, st.Occupants[0].Instrument)

	_, err = h.o.JoinRoom("B", "wxyz")
	require.NoError(t, err)
	for _, rec := range []*recorder{a, b} {
		st := lastState(t, rec.drain(t))
		assert.Equal(t, domain.RoomCode("WXYZ"), st.RoomID)
		require.Len(t, st.Occupants, 2)
		assert.Nil(t, st.Occupants[0].Instrument)
		assert.Nil(t, st.Occupants[1].Instrument)
	}

	require.NoError(t, h.o.SelectInstrument("A", "Drums"))
	for _, rec := range []*recorder{a, b} {
		st := lastState(t, rec.drain(t))
		byID := map[domain.ClientID]*domain.Instrument{}
		for _, occ := range st.Occupants {
			byID[occ.ClientID] = occ.Instrument
		}
		require.NotNil(t, byID["A"])
		assert.Equal(t, domain.Drums, *byID["A"])
		assert.Nil(t, byID["B"])
	}

	res, ok := h.o.PlaySound("A", "Drums", "kick")
	require.True(t, ok)
	assert.Equal(t, 1, res.SendTo)
	assert.Empty(t, a.drain(t), "sender gets no echo")
	got := b.drain(t)
	require.Len(t, got, 1)
	assert.Equal(t, protocol.TypeSoundPlayed, got[0].Type)
	var ev protocol.SoundPlayed
	require.NoError(t, json.Unmarshal(got[0].Payload, &ev))
	assert.Equal(t, protocol.SoundPlayed{SenderID: "A", Instrument: "Drums", Sound: "kick"}, ev)

	h.o.Disconnect("B")
	st = lastState(t, a.drain(t))
	require.Len(t, st.Occupants, 1)
	assert.Equal(t, domain.ClientID("A"), st.Occupants[0].ClientID)
	_, ok = h.o.Rooms.GetRoom("WXYZ")
	assert.True(t, ok, "room persists with one member")

	require.NoError(t, h.o.LeaveRoom("A"))
	assert.Empty(t, a.drain(t), "no broadcast once the room is gone")
	_, ok = h.o.Rooms.GetRoom("WXYZ")
	assert.False(t, ok)
	assert.Zero(t, h.o.Rooms.Count())
}

func TestExclusiveMembership(t *testing.T) {
	h := newHarness("AAAA", "BBBB")
	h.connect("A")
	h.connect("B")

	_, err := h.o.CreateRoom("B")
	require.NoError(t, err)
	_, err = h.o.CreateRoom("A")
	require.NoError(t, err)

	_, err = h.o.CreateRoom("A")
	assert.ErrorIs(t, err, app.ErrAlreadyInRoom)
	_, err = h.o.JoinRoom("A", "AAAA")
	assert.ErrorIs(t, err, app.ErrAlreadyInRoom)
	_, err = h.o.JoinRoom("A", "bbbb")
	assert.ErrorIs(t, err, app.ErrAlreadyInRoom)
	assert.Equal(t, 2, h.o.Rooms.Count(), "failed attempts create nothing")

	require.NoError(t, h.o.LeaveRoom("A"))
	_, err = h.o.JoinRoom("A", "bbbb")
	assert.NoError(t, err, "after leaving, joining works again")
}

func TestJoinErrors(t *testing.T) {
	h := newHarness("FULL")
	for i := 0; i < domain.RoomCapacity; i++ {
		h.connect(core.SessionID(fmt.Sprintf("m%d", i)))
	}
	h.connect("late")

	_, err := h.o.JoinRoom("late", "NOPE")
	assert.ErrorIs(t, err, app.ErrRoomNotFound)

	_, err = h.o.CreateRoom("m0")
	require.NoError(t, err)
	for i := 1; i < domain.RoomCapacity; i++ {
		_, err := h.o.JoinRoom(core.SessionID(fmt.Sprintf("m%d", i)), "full")
		require.NoError(t, err)
	}

	_, err = h.o.JoinRoom("late", "FULL")
	assert.ErrorIs(t, err, app.ErrRoomFull)
	_, _, inRoom := h.o.Registry.RoomOf("late")
	assert.False(t, inRoom, "failed join leaves endpoint unassigned")

	room, ok := h.o.Rooms.GetRoom("FULL")
	require.True(t, ok)
	assert.Equal(t, domain.RoomCapacity, room.MemberCount())
}

func TestDeletedRoomIsNotFound(t *testing.T) {
	h := newHarness("GONE")
	h.connect("A")
	h.connect("B")

	_, err := h.o.CreateRoom("A")
	require.NoError(t, err)
	require.NoError(t, h.o.LeaveRoom("A"))

	_, err = h.o.JoinRoom("B", "GONE")
	assert.ErrorIs(t, err, app.ErrRoomNotFound)
}

func TestOutsideRoom(t *testing.T) {
	h := newHarness()
	a := h.connect("A")

	assert.ErrorIs(t, h.o.SelectInstrument("A", "Drums"), app.ErrNotInRoom)
	assert.ErrorIs(t, h.o.LeaveRoom("A"), app.ErrNotInRoom)

	_, ok := h.o.PlaySound("A", "Drums", "kick")
	assert.False(t, ok, "sound outside a room is ignored")
	assert.Empty(t, a.drain(t))

	// disconnect outside a room is silent
	h.o.Disconnect("A")
	assert.Zero(t, h.o.Registry.Count())
}

func TestSelectInstrument(t *testing.T) {
	h := newHarness("ROLE")
	a := h.connect("A")
	_, err := h.o.CreateRoom("A")
	require.NoError(t, err)
	a.drain(t)

	require.NoError(t, h.o.SelectInstrument("A", "Bass"))
	require.NoError(t, h.o.SelectInstrument("A", "Bass"))
	envs := a.drain(t)
	assert.Len(t, envs, 2, "each accepted selection broadcasts")
	st := lastState(t, envs)
	require.Len(t, st.Occupants, 1)
	assert.Equal(t, domain.Bass, *st.Occupants[0].Instrument)

	assert.ErrorIs(t, h.o.SelectInstrument("A", "Kazoo"), app.ErrInvalidInstrument)
	assert.Empty(t, a.drain(t), "rejected selection broadcasts nothing")

	room, _ := h.o.Rooms.GetRoom("ROLE")
	v := room.Snapshot()
	assert.Equal(t, domain.Bass, *v.Members[0].Instrument)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness("IDEM")
	h.connect("A")
	h.connect("B")
	_, err := h.o.CreateRoom("A")
	require.NoError(t, err)
	_, err = h.o.JoinRoom("B", "IDEM")
	require.NoError(t, err)

	h.o.Disconnect("B")
	h.o.Disconnect("B")

	room, ok := h.o.Rooms.GetRoom("IDEM")
	require.True(t, ok)
	assert.Equal(t, 1, room.MemberCount())
}

func TestShutdown(t *testing.T) {
	h := newHarness("SHUT")
	a := h.connect("A")
	b := h.connect("B")
	_, err := h.o.CreateRoom("A")
	require.NoError(t, err)
	a.drain(t)

	res := h.o.BeginShutdown("bye")
	assert.Equal(t, 2, res.SendTo)
	for _, rec := range []*recorder{a, b} {
		envs := rec.drain(t)
		require.Len(t, envs, 1)
		assert.Equal(t, protocol.TypeServerShutdown, envs[0].Type)
	}

	_, err = h.o.CreateRoom("B")
	assert.ErrorIs(t, err, app.ErrShuttingDown)
	_, err = h.o.JoinRoom("B", "SHUT")
	assert.ErrorIs(t, err, app.ErrShuttingDown)
	assert.ErrorIs(t, h.o.SelectInstrument("A", "Drums"), app.ErrShuttingDown)
	_, ok := h.o.PlaySound("A", "Drums", "kick")
	assert.False(t, ok)

	h.o.Teardown()
	assert.Zero(t, h.o.Rooms.Count())
}

func TestConcurrentJoinLeaveKeepsInvariants(t *testing.T) {
	h := newHarness("RACE")
	const clients = 24
	for i := 0; i < clients; i++ {
		h.connect(core.SessionID(fmt.Sprintf("c%d", i)))
	}
	h.connect("owner")
	_, err := h.o.CreateRoom("owner")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(sid core.SessionID) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := h.o.JoinRoom(sid, "race"); err == nil {
					_ = h.o.LeaveRoom(sid)
				}
			}
		}(core.SessionID(fmt.Sprintf("c%d", i)))
	}
	wg.Wait()

	room, ok := h.o.Rooms.GetRoom("RACE")
	require.True(t, ok, "owner keeps the room alive")
	assert.Equal(t, 1, room.MemberCount())
	for i := 0; i < clients; i++ {
		_, _, inRoom := h.o.Registry.RoomOf(core.SessionID(fmt.Sprintf("c%d", i)))
		assert.False(t, inRoom)
	}
}

func TestKickCancelsConnection(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.o.Connect("A", core.NewMemberSession("A", &recorder{}), cancel)

	assert.True(t, h.o.Kick("A"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, h.o.Kick("ghost"))
}
