package core

import (
	"github.com/dkeye/Jam/internal/domain"
)

// MemberView is one member as seen at a point in time.
type MemberView struct {
	ID         SessionID
	Instrument *domain.Instrument
	Session    MemberSession
}

// View is a consistent snapshot of a room's membership, taken under the room lock.
type View struct {
	Code     domain.RoomCode
	Capacity int
	Members  []MemberView
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberView
}

// ChangeFunc observes a room right after a membership change. It runs while
// the room lock is held, so it must not block or call back into the room.
type ChangeFunc func(View)

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Closed() bool

	Join(sid SessionID, ms MemberSession, onChange ChangeFunc) error
	SelectInstrument(sid SessionID, instrument string, onChange ChangeFunc) error
	// Leave removes sid. removed is false when sid was not a member. When the
	// room becomes empty it closes itself and onChange is not called.
	Leave(sid SessionID, onChange ChangeFunc) (removed, empty bool)
	// CloseIfEmpty atomically closes the room if it has no members.
	CloseIfEmpty() bool
	// Stop closes the room and drops all members.
	Stop()

	View(fn func(View))
	Snapshot() View
}

type RoomInfo struct {
	Code        domain.RoomCode `json:"roomId"`
	MemberCount int             `json:"memberCount"`
}

type RoomManager interface {
	CreateRoom(capacity int) RoomService
	GetRoom(code domain.RoomCode) (RoomService, bool)
	RemoveIfEmpty(code domain.RoomCode) bool
	List() []RoomInfo
	Count() int
	StopAll()
}
