package entangle

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

// NoIndex is the reported index of a round without a latched arrival.
const NoIndex = -1

var errMalformed = errors.New("malformed message")

// Kind tags the variants of Message.
type Kind byte

const (
	KindStart Kind = iota + 1
	KindEnd
	KindConsistency
	KindCorrection
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindConsistency:
		return "consistency"
	case KindCorrection:
		return "correction"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Message is a classical message exchanged by the two sides of a session.
// Only the fields of the variant named by Kind are meaningful.
type Message struct {
	Kind Kind
	// Time is the agreed start time of the first round (KindStart).
	Time time.Duration
	// Index is the latched slot index or NoIndex (KindEnd).
	Index int
	// Bit is the local parity bit (KindConsistency).
	Bit uint8
	// M0 gates the Z correction and M1 the X correction (KindCorrection).
	M0, M1 uint8
}

func StartMessage(at time.Duration) Message {
	return Message{Kind: KindStart, Time: at}
}

func EndMessage(index int) Message {
	return Message{Kind: KindEnd, Index: index}
}

func ConsistencyMessage(bit uint8) Message {
	return Message{Kind: KindConsistency, Bit: bit}
}

func CorrectionMessage(m0, m1 uint8) Message {
	return Message{Kind: KindCorrection, M0: m0, M1: m1}
}

func (m *Message) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		// kind is a full byte, not compact
		n, err := scale.EncodeByte(enc, byte(m.Kind))
		if err != nil {
			return total, err
		}
		total += n
	}
	switch m.Kind {
	case KindStart:
		if m.Time < 0 {
			return total, fmt.Errorf("%w: negative start %d", errMalformed, m.Time)
		}
		n, err := scale.EncodeCompact64(enc, uint64(m.Time))
		if err != nil {
			return total, err
		}
		total += n
	case KindEnd:
		if m.Index < NoIndex || int64(m.Index) > math.MaxUint32 {
			return total, fmt.Errorf("%w: index %d", errMalformed, m.Index)
		}
		var present byte
		if m.Index != NoIndex {
			present = 1
		}
		n, err := scale.EncodeByte(enc, present)
		if err != nil {
			return total, err
		}
		total += n
		if present == 1 {
			n, err := scale.EncodeCompact32(enc, uint32(m.Index))
			if err != nil {
				return total, err
			}
			total += n
		}
	case KindConsistency:
		n, err := scale.EncodeByte(enc, m.Bit)
		if err != nil {
			return total, err
		}
		total += n
	case KindCorrection:
		for _, bit := range []uint8{m.M0, m.M1} {
			n, err := scale.EncodeByte(enc, bit)
			if err != nil {
				return total, err
			}
			total += n
		}
	default:
		return total, fmt.Errorf("%w: unknown kind %d", errMalformed, m.Kind)
	}
	return total, nil
}

func (m *Message) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		kind, n, err := scale.DecodeByte(dec)
		if err != nil {
			return total, err
		}
		m.Kind = Kind(kind)
		total += n
	}
	switch m.Kind {
	case KindStart:
		at, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		if at > math.MaxInt64 {
			return total, fmt.Errorf("%w: start %d overflows", errMalformed, at)
		}
		m.Time = time.Duration(at)
		total += n
	case KindEnd:
		present, n, err := scale.DecodeByte(dec)
		if err != nil {
			return total, err
		}
		total += n
		switch present {
		case 0:
			m.Index = NoIndex
		case 1:
			index, n, err := scale.DecodeCompact32(dec)
			if err != nil {
				return total, err
			}
			m.Index = int(index)
			total += n
		default:
			return total, fmt.Errorf("%w: presence byte %d", errMalformed, present)
		}
	case KindConsistency:
		bit, n, err := decodeBit(dec)
		if err != nil {
			return total, err
		}
		m.Bit = bit
		total += n
	case KindCorrection:
		for _, dst := range []*uint8{&m.M0, &m.M1} {
			bit, n, err := decodeBit(dec)
			if err != nil {
				return total, err
			}
			*dst = bit
			total += n
		}
	default:
		return total, fmt.Errorf("%w: unknown kind %d", errMalformed, m.Kind)
	}
	return total, nil
}

func decodeBit(dec *scale.Decoder) (uint8, int, error) {
	bit, n, err := scale.DecodeByte(dec)
	if err != nil {
		return 0, n, err
	}
	if bit > 1 {
		return 0, n, fmt.Errorf("%w: bit %d", errMalformed, bit)
	}
	return bit, n, nil
}

func (m *Message) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("kind", m.Kind.String())
	switch m.Kind {
	case KindStart:
		encoder.AddInt64("start", int64(m.Time))
	case KindEnd:
		encoder.AddInt("index", m.Index)
	case KindConsistency:
		encoder.AddUint8("bit", m.Bit)
	case KindCorrection:
		encoder.AddUint8("m0", m.M0)
		encoder.AddUint8("m1", m.M1)
	}
	return nil
}
