package core

import "github.com/dkeye/Jam/internal/domain"

type SessionID = domain.ClientID

// MemberSession binds a client identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Signal() SignalConnection
}
