// Package repeater implements the network endpoints: their classical and
// arrival ports and their two-slot memory.
package repeater

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/timesync"
)

var (
	ErrSlotOccupied = errors.New("slot occupied")
	ErrSlotEmpty    = errors.New("slot empty")
	ErrUnknownPeer  = errors.New("unknown peer")
	ErrBusy         = errors.New("endpoint bound to another session")

	errInvalidSlot = errors.New("invalid slot")
)

// Memory holds at most one half per slot.
type Memory struct {
	slots [types.NumSlots]*epr.Half
}

// Put stores h in slot.
func (m *Memory) Put(slot types.Slot, h *epr.Half) error {
	if int(slot) >= types.NumSlots {
		return fmt.Errorf("%w: %d", errInvalidSlot, slot)
	}
	if m.slots[slot] != nil {
		return fmt.Errorf("%w: %d", ErrSlotOccupied, slot)
	}
	m.slots[slot] = h
	return nil
}

// Peek returns the half in slot without removing it.
func (m *Memory) Peek(slot types.Slot) (*epr.Half, error) {
	if int(slot) >= types.NumSlots {
		return nil, fmt.Errorf("%w: %d", errInvalidSlot, slot)
	}
	if m.slots[slot] == nil {
		return nil, fmt.Errorf("%w: %d", ErrSlotEmpty, slot)
	}
	return m.slots[slot], nil
}

// Pop removes and returns the half in slot.
func (m *Memory) Pop(slot types.Slot) (*epr.Half, error) {
	h, err := m.Peek(slot)
	if err != nil {
		return nil, err
	}
	m.slots[slot] = nil
	return h, nil
}

// Discard empties slot. It is a no-op for an empty slot.
func (m *Memory) Discard(slot types.Slot) {
	if int(slot) < types.NumSlots {
		m.slots[slot] = nil
	}
}

// Clear empties every slot.
func (m *Memory) Clear() {
	for i := range m.slots {
		m.slots[i] = nil
	}
}

// Used returns the occupied slots in order.
func (m *Memory) Used() []types.Slot {
	var used []types.Slot
	for i, h := range m.slots {
		if h != nil {
			used = append(used, types.Slot(i))
		}
	}
	return used
}

type peer struct {
	classical *timesync.Port[[]byte]
	arrivals  *timesync.Port[*epr.Half]
}

// Endpoint is a network node with one classical and one arrival port per peer.
type Endpoint struct {
	id     types.EndpointID
	clock  *timesync.Clock
	peers  map[types.EndpointID]peer
	memory Memory
	bound  types.SessionID
}

func New(clock *timesync.Clock, id types.EndpointID) *Endpoint {
	return &Endpoint{
		id:    id,
		clock: clock,
		peers: make(map[types.EndpointID]peer),
	}
}

func (e *Endpoint) ID() types.EndpointID {
	return e.id
}

// Connect creates the ports for other. Ports are named c<id> and q<id>.
func (e *Endpoint) Connect(other types.EndpointID) {
	if _, ok := e.peers[other]; ok {
		return
	}
	e.peers[other] = peer{
		classical: timesync.NewPort[[]byte](e.clock, fmt.Sprintf("c%d", other), timesync.Buffered),
		arrivals:  timesync.NewPort[*epr.Half](e.clock, fmt.Sprintf("q%d", other), timesync.Edge),
	}
}

// Classical returns the FIFO port receiving messages from other.
func (e *Endpoint) Classical(other types.EndpointID) (*timesync.Port[[]byte], error) {
	p, ok := e.peers[other]
	if !ok {
		return nil, fmt.Errorf("%w: %d at %d", ErrUnknownPeer, other, e.id)
	}
	return p.classical, nil
}

// Arrivals returns the edge-triggered port receiving halves from the source
// shared with other.
func (e *Endpoint) Arrivals(other types.EndpointID) (*timesync.Port[*epr.Half], error) {
	p, ok := e.peers[other]
	if !ok {
		return nil, fmt.Errorf("%w: %d at %d", ErrUnknownPeer, other, e.id)
	}
	return p.arrivals, nil
}

func (e *Endpoint) Memory() *Memory {
	return &e.memory
}

// Bind reserves the endpoint for session id.
func (e *Endpoint) Bind(id types.SessionID) error {
	if e.bound != types.EmptySessionID && e.bound != id {
		return fmt.Errorf("%w: endpoint %d session %s", ErrBusy, e.id, e.bound.ShortString())
	}
	e.bound = id
	return nil
}

// Release frees the endpoint if it is bound to id.
func (e *Endpoint) Release(id types.SessionID) {
	if e.bound == id {
		e.bound = types.EmptySessionID
	}
}

// Bound returns the session the endpoint is reserved for.
func (e *Endpoint) Bound() (types.SessionID, bool) {
	return e.bound, e.bound != types.EmptySessionID
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *Endpoint) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint32("id", e.id.Uint32())
	encoder.AddInt("peers", len(e.peers))
	encoder.AddInt("used slots", len(e.memory.Used()))
	if id, ok := e.Bound(); ok {
		encoder.AddString("session", id.ShortString())
	}
	return nil
}
