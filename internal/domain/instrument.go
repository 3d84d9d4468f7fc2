package domain

type Instrument string

const (
	Drums  Instrument = "Drums"
	Bass   Instrument = "Bass"
	Guitar Instrument = "Guitar"
	Keys   Instrument = "Keys"
)

var instruments = [...]Instrument{Drums, Bass, Guitar, Keys}

// Instruments returns the fixed instrument set in declaration order.
func Instruments() []Instrument {
	out := make([]Instrument, len(instruments))
	copy(out, instruments[:])
	return out
}

// ParseInstrument matches name exactly against the instrument set.
func ParseInstrument(name string) (Instrument, bool) {
	for _, in := range instruments {
		if string(in) == name {
			return in, true
		}
	}
	return "", false
}
