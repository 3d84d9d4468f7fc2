package app

import (
	"errors"

	"github.com/dkeye/Jam/internal/core"
	"github.com/dkeye/Jam/internal/domain"
	"github.com/dkeye/Jam/internal/metrics"
	"github.com/dkeye/Jam/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Broadcaster encodes a message once and fans it out to room members. A
// failed send to one member is recorded and never stops the loop.
type Broadcaster struct {
	policy Policy
	logger zerolog.Logger
}

func NewBroadcaster(policy Policy) *Broadcaster {
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Broadcaster{
		policy: policy,
		logger: log.With().Str("module", "app.broadcast").Logger(),
	}
}

// Occupancy sends the room's current occupant list to every member.
func (b *Broadcaster) Occupancy(v core.View) core.PublishResult {
	msg := protocol.RoomStateUpdate{
		RoomID:    v.Code,
		Occupants: make([]protocol.Occupant, 0, len(v.Members)),
	}
	for _, m := range v.Members {
		msg.Occupants = append(msg.Occupants, protocol.Occupant{ClientID: m.ID, Instrument: m.Instrument})
	}
	frame, err := protocol.Encode(protocol.TypeRoomStateUpdate, msg)
	if err != nil {
		b.logger.Error().Err(err).Str("room", string(v.Code)).Msg("encode room state")
		return core.PublishResult{}
	}
	return b.fanOut(protocol.TypeRoomStateUpdate, frame, v.Code, v.Members, "")
}

// Relay sends ev to every member except from.
func (b *Broadcaster) Relay(v core.View, from core.SessionID, ev protocol.SoundPlayed) core.PublishResult {
	frame, err := protocol.Encode(protocol.TypeSoundPlayed, ev)
	if err != nil {
		b.logger.Error().Err(err).Str("room", string(v.Code)).Msg("encode sound")
		return core.PublishResult{}
	}
	return b.fanOut(protocol.TypeSoundPlayed, frame, v.Code, v.Members, from)
}

// All sends one message to each session regardless of room. Used for the
// shutdown notice.
func (b *Broadcaster) All(sessions []core.MemberSession, kind string, payload any) core.PublishResult {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		b.logger.Error().Err(err).Str("kind", kind).Msg("encode")
		return core.PublishResult{}
	}
	recipients := make([]core.MemberView, 0, len(sessions))
	for _, s := range sessions {
		recipients = append(recipients, core.MemberView{ID: s.ID(), Session: s})
	}
	return b.fanOut(kind, frame, "", recipients, "")
}

// Direct replies to a single connection.
func (b *Broadcaster) Direct(conn core.SignalConnection, kind string, payload any) error {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		b.logger.Error().Err(err).Str("kind", kind).Msg("encode")
		return err
	}
	if err := conn.TrySend(frame); err != nil {
		metrics.Deliveries.WithLabelValues(kind, "dropped").Inc()
		return err
	}
	metrics.Deliveries.WithLabelValues(kind, "sent").Inc()
	return nil
}

func (b *Broadcaster) fanOut(kind string, frame core.Frame, code domain.RoomCode, recipients []core.MemberView, exclude core.SessionID) core.PublishResult {
	res := core.PublishResult{}
	var slow []core.MemberView
	for _, m := range recipients {
		if exclude != "" && m.ID == exclude {
			continue
		}
		if m.Session == nil {
			continue
		}
		if err := m.Session.Signal().TrySend(frame); err != nil {
			b.logger.Debug().Err(err).Str("kind", kind).Str("room", string(code)).Str("sid", string(m.ID)).Msg("delivery failed")
			res.Dropped = append(res.Dropped, m)
			if errors.Is(err, core.ErrBackpressure) {
				slow = append(slow, m)
			}
			continue
		}
		res.SendTo++
	}

	metrics.Deliveries.WithLabelValues(kind, "sent").Add(float64(res.SendTo))
	if len(res.Dropped) > 0 {
		metrics.Deliveries.WithLabelValues(kind, "dropped").Add(float64(len(res.Dropped)))
	}
	// A closed recipient is already on its way out; only a full buffer
	// goes to the policy.
	for _, m := range slow {
		switch b.policy.OnBackPressure(code, m) {
		case KickMember:
			b.logger.Warn().Str("room", string(code)).Str("sid", string(m.ID)).Msg("kicking slow member")
			m.Session.Signal().Close()
		case DropFrame, NoAction:
		}
	}
	return res
}
