package app

import (
	"math/rand"
	"sync"

	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
	"github.com/dkeye/Jam/internal/metrics"
	"github.com/rs/zerolog/log"
)

// CodeGenerator produces candidate room codes. Collisions are retried by the
// manager, so a generator need not be unique.
type CodeGenerator func() domain.RoomCode

// RandomCode draws RoomCodeLen letters from RoomCodeAlphabet.
func RandomCode() domain.RoomCode {
	b := make([]byte, domain.RoomCodeLen)
	for i := range b {
		b[i] = domain.RoomCodeAlphabet[rand.Intn(len(domain.RoomCodeAlphabet))]
	}
	return domain.RoomCode(b)
}

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]core.RoomService
	gen   CodeGenerator
}

type RoomManagerOption func(*RoomManagerImpl)

func WithCodeGenerator(gen CodeGenerator) RoomManagerOption {
	return func(m *RoomManagerImpl) { m.gen = gen }
}

func NewRoomManager(opts ...RoomManagerOption) core.RoomManager {
	m := &RoomManagerImpl{
		rooms: make(map[domain.RoomCode]core.RoomService),
		gen:   RandomCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (f *RoomManagerImpl) CreateRoom(capacity int) core.RoomService {
	f.mu.Lock()
	defer f.mu.Unlock()

	code := f.gen()
	for {
		if _, taken := f.rooms[code]; !taken {
			break
		}
		log.Debug().Str("module", "app.rooms").Str("room", string(code)).Msg("code collision, regenerating")
		code = f.gen()
	}

	room := core.NewRoomService(&domain.Room{Code: code, Capacity: capacity})
	f.rooms[code] = room
	metrics.Rooms.Set(float64(len(f.rooms)))
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Int("rooms", len(f.rooms)).Msg("room created")
	return room
}

func (f *RoomManagerImpl) GetRoom(code domain.RoomCode) (core.RoomService, bool) {
	code = domain.NormalizeRoomCode(string(code))
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[code]
	return room, ok
}

func (f *RoomManagerImpl) RemoveIfEmpty(code domain.RoomCode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[code]
	if !ok || !room.CloseIfEmpty() {
		return false
	}
	delete(f.rooms, code)
	metrics.Rooms.Set(float64(len(f.rooms)))
	log.Info().Str("module", "app.rooms").Str("room", string(code)).Int("rooms", len(f.rooms)).Msg("room deleted")
	return true
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for code, r := range f.rooms {
		out = append(out, core.RoomInfo{Code: code, MemberCount: r.MemberCount()})
	}
	return out
}

func (f *RoomManagerImpl) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}

func (f *RoomManagerImpl) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, r := range f.rooms {
		r.Stop()
		delete(f.rooms, code)
	}
	metrics.Rooms.Set(0)
	log.Info().Str("module", "app.rooms").Msg("all rooms stopped")
}
