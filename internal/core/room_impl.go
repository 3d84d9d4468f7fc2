package core

import (
	"sync"

	"github.com/dkeye/Jam/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomMember struct {
	meta    *domain.Member
	session MemberSession
}

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room *domain.Room

	mu      sync.Mutex
	members map[SessionID]*roomMember
	order   []SessionID
	closed  bool
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:    room,
		members: make(map[SessionID]*roomMember, room.Capacity),
		order:   make([]SessionID, 0, room.Capacity),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *roomImpl) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *roomImpl) Join(sid SessionID, ms MemberSession, onChange ChangeFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if _, ok := r.members[sid]; ok {
		return ErrAlreadyMember
	}
	if len(r.members) >= r.room.Capacity {
		return ErrRoomFull
	}

	r.members[sid] = &roomMember{meta: domain.NewMember(sid), session: ms}
	r.order = append(r.order, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", string(sid)).Int("members", len(r.members)).Msg("member added")

	if onChange != nil {
		onChange(r.viewLocked())
	}
	return nil
}

func (r *roomImpl) SelectInstrument(sid SessionID, instrument string, onChange ChangeFunc) error {
	in, ok := domain.ParseInstrument(instrument)
	if !ok {
		return ErrInvalidInstrument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[sid]
	if !ok {
		return ErrNotMember
	}
	m.meta.SetInstrument(in)
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", string(sid)).Str("instrument", string(in)).Msg("instrument selected")

	if onChange != nil {
		onChange(r.viewLocked())
	}
	return nil
}

func (r *roomImpl) Leave(sid SessionID, onChange ChangeFunc) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[sid]; !ok {
		return false, len(r.members) == 0
	}
	delete(r.members, sid)
	for i, id := range r.order {
		if id == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.Code)).Str("sid", string(sid)).Int("members", len(r.members)).Msg("member removed")

	if len(r.members) == 0 {
		r.closed = true
		return true, true
	}
	if onChange != nil {
		onChange(r.viewLocked())
	}
	return true, false
}

func (r *roomImpl) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *roomImpl) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	clear(r.members)
	r.order = r.order[:0]
}

func (r *roomImpl) View(fn func(View)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.viewLocked())
}

func (r *roomImpl) Snapshot() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *roomImpl) viewLocked() View {
	v := View{
		Code:     r.room.Code,
		Capacity: r.room.Capacity,
		Members:  make([]MemberView, 0, len(r.order)),
	}
	for _, sid := range r.order {
		m := r.members[sid]
		var in *domain.Instrument
		if m.meta.Instrument != nil {
			cp := *m.meta.Instrument
			in = &cp
		}
		v.Members = append(v.Members, MemberView{ID: sid, Instrument: in, Session: m.session})
	}
	return v
}
