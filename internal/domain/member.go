package domain

// Member represents a client's participation in a room.
// No transport or lifecycle logic here.
type Member struct {
	ClientID   ClientID
	Instrument *Instrument
}

// NewMember returns a member with no instrument selected.
func NewMember(id ClientID) *Member {
	return &Member{ClientID: id}
}

// SetInstrument overwrites the current selection.
func (m *Member) SetInstrument(in Instrument) {
	m.Instrument = &in
}
