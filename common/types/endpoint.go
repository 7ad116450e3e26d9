package types

import (
	"strconv"

	"go.uber.org/zap/zapcore"
)

// EndpointID identifies an endpoint of the network.
type EndpointID uint32

// String implements fmt.Stringer.
func (id EndpointID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Uint32 returns the id as uint32.
func (id EndpointID) Uint32() uint32 {
	return uint32(id)
}

// EndpointPair is an unordered pair of distinct endpoints. Low is always the smaller id.
type EndpointPair struct {
	Low, High EndpointID
}

// NewEndpointPair orders a and b.
func NewEndpointPair(a, b EndpointID) EndpointPair {
	if b < a {
		a, b = b, a
	}
	return EndpointPair{Low: a, High: b}
}

// Other returns the endpoint of the pair that is not id.
func (p EndpointPair) Other(id EndpointID) EndpointID {
	if id == p.Low {
		return p.High
	}
	return p.Low
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (p EndpointPair) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint32("low", p.Low.Uint32())
	encoder.AddUint32("high", p.High.Uint32())
	return nil
}

// Slot is a position in the two-slot memory of an endpoint.
type Slot uint8

const (
	// SlotFirst holds the resource produced by the first generation of a session.
	SlotFirst Slot = iota
	// SlotSecond holds the resource produced by the second generation.
	SlotSecond

	// NumSlots is the number of memory slots on every endpoint.
	NumSlots = 2
)

// String implements fmt.Stringer.
func (s Slot) String() string {
	return strconv.Itoa(int(s))
}
