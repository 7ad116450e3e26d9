// Package epr models the entangled pairs distributed by link sources.
//
// A pair is tracked as Pauli frames instead of state vectors. Both halves
// share a random measurement outcome, and the channel may add a bit-flip to
// the second half. Parity checks between two pairs agree iff both pairs
// carry the same error. Teleporting over a pair leaves a Pauli frame on the
// receiving half that the classical corrections must undo.
package epr

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap/zapcore"
)

var (
	// ErrMeasured is returned when an already measured half is used.
	ErrMeasured = errors.New("half already measured")
	// ErrSamePair is returned when a parity check is done on two halves of one pair.
	ErrSamePair = errors.New("halves of the same pair")
)

// Operator is a single-qubit Pauli operator.
type Operator uint8

const (
	I Operator = iota
	X
	Z
)

func (o Operator) String() string {
	switch o {
	case I:
		return "I"
	case X:
		return "X"
	case Z:
		return "Z"
	}
	return fmt.Sprintf("Operator(%d)", uint8(o))
}

// Side distinguishes the two halves of a pair.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Pair is an entangled pair emitted by a source.
type Pair struct {
	ID      uint64
	Emitted time.Duration

	outcome bool
	flip    bool
	halves  [2]*Half
}

// NewPair creates a pair. outcome is the shared measurement result in the
// computational basis, flip adds a bit-flip error to the right half.
func NewPair(id uint64, emitted time.Duration, outcome, flip bool) *Pair {
	p := &Pair{ID: id, Emitted: emitted, outcome: outcome, flip: flip}
	p.halves[Left] = &Half{pair: p, side: Left}
	p.halves[Right] = &Half{pair: p, side: Right}
	return p
}

// Half returns the half of the pair on side s.
func (p *Pair) Half(s Side) *Half {
	return p.halves[s]
}

// Flipped reports whether the channel introduced a bit-flip.
func (p *Pair) Flipped() bool {
	return p.flip
}

// Frame is the Pauli frame accumulated on a half.
type Frame struct {
	X, Z bool
}

// Half is one qubit of a pair stored in an endpoint slot.
type Half struct {
	pair     *Pair
	side     Side
	measured bool

	// set on the receiving half by Teleport
	payload bool
	frame   Frame
	applied []Operator
}

func (h *Half) Pair() *Pair {
	return h.pair
}

func (h *Half) Side() Side {
	return h.side
}

func (h *Half) Measured() bool {
	return h.measured
}

// Partner returns the other half of the pair.
func (h *Half) Partner() *Half {
	return h.pair.halves[1-h.side]
}

// Applied returns the operators applied on the half in order.
func (h *Half) Applied() []Operator {
	return h.applied
}

// Frame returns the current Pauli frame of the half.
func (h *Half) Frame() Frame {
	return h.frame
}

// Apply applies op on the half.
func (h *Half) Apply(op Operator) {
	switch op {
	case X:
		h.frame.X = !h.frame.X
	case Z:
		h.frame.Z = !h.frame.Z
	}
	h.applied = append(h.applied, op)
}

func (h *Half) value() bool {
	return h.pair.outcome != (h.side == Right && h.pair.flip)
}

// Parity measures both halves in the computational basis and returns the
// parity bit of the outcomes. The second half is consumed.
func Parity(first, second *Half) (uint8, error) {
	if first.measured || second.measured {
		return 0, ErrMeasured
	}
	if first.pair == second.pair {
		return 0, ErrSamePair
	}
	second.measured = true
	if first.value() != second.value() {
		return 1, nil
	}
	return 0, nil
}

// Teleport sends the state |1> over the pair of h. h is consumed and the
// returned bits are the outcomes of the Bell measurement: m0 selects a Z
// correction and m1 an X correction on the partner half.
func Teleport(h *Half, rng *rand.Rand) (m0, m1 uint8, err error) {
	if h.measured {
		return 0, 0, ErrMeasured
	}
	h.measured = true
	m0, m1 = uint8(rng.Intn(2)), uint8(rng.Intn(2))
	partner := h.Partner()
	partner.payload = true
	partner.frame = Frame{
		X: (m1 == 1) != h.pair.flip,
		Z: m0 == 1,
	}
	return m0, m1, nil
}

// Fidelity returns the fidelity of the state held by h with |1>.
// A Z error only changes the phase of |1>, so only the X frame matters.
func (h *Half) Fidelity() float64 {
	if !h.payload || h.frame.X {
		return 0
	}
	return 1
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (h *Half) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint64("pair", h.pair.ID)
	encoder.AddString("side", h.side.String())
	encoder.AddInt64("emitted", int64(h.pair.Emitted))
	encoder.AddBool("measured", h.measured)
	return nil
}
