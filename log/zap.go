package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ObjectEncoder aliases zapcore.ObjectEncoder.
type ObjectEncoder = zapcore.ObjectEncoder

// ArrayEncoder aliases zapcore.ArrayEncoder.
type ArrayEncoder = zapcore.ArrayEncoder

// ShortString is implemented by identifiers with a compact printable form.
type ShortString interface {
	ShortString() string
}

// ZShortStringer is a zap field for identifiers that implement ShortString.
func ZShortStringer(key string, val ShortString) zap.Field {
	return zap.Stringer(key, shortStringer{val})
}

type shortStringer struct {
	val ShortString
}

func (s shortStringer) String() string {
	return s.val.ShortString()
}

// ZVirtual logs a virtual timestamp as integer nanoseconds since the start of the run.
func ZVirtual(key string, at time.Duration) zap.Field {
	return zap.Int64(key, int64(at))
}

// ZInts logs a slice of ints.
func ZInts(key string, vals []int) zap.Field {
	return zap.Array(key, zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, v := range vals {
			enc.AppendInt(v)
		}
		return nil
	}))
}
