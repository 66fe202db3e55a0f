package multiscale

import "gonum.org/v1/gonum/spatial/r2"

type kind uint8

const (
	kindProposal kind = iota
	kindSunOffer
	kindMoonOffer
	kindPlanetAck
	kindMoonAck
	kindAdvert
	kindReport
	kindFlood
	kindCoords
	kindPlace
)

// Message is exchanged between vertices. Which fields are meaningful
// depends on Kind.
type Message struct {
	Kind kind
	TTL  int

	Value   r2.Vec
	Sender  int64
	Payload int64
	Degree  int

	Sun         int64
	Weight      int
	Mass        int
	Hops        int
	PathLength  int
	Accumulator int
}

// propagate returns the copy of m forwarded by sender, one hop closer to
// expiry.
func (m Message) propagate(sender int64) Message {
	m.TTL--
	m.Sender = sender
	return m
}

// propagateAndDie returns a copy of m that will not be forwarded again.
func (m Message) propagateAndDie(sender int64) Message {
	m.TTL = 0
	m.Sender = sender
	return m
}
