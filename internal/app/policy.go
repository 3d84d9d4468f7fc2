package app

import (
	"fmt"

	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what to do with a recipient that could not take a frame.
type Policy interface {
	OnBackPressure(code domain.RoomCode, member core.MemberView) BackpressureAction
}

// DropPolicy skips the frame for that recipient only.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomCode, core.MemberView) BackpressureAction {
	return DropFrame
}

// KickPolicy closes the recipient's connection; its read loop then runs the
// normal disconnect path.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomCode, core.MemberView) BackpressureAction {
	return KickMember
}

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
