// Package link implements the physical layer between two endpoints: a
// midpoint pair source and a classical channel with fibre latency.
package link

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap/zapcore"
)

// FibreSpeed is the speed of light in fibre in km/s.
const FibreSpeed = 200_000.0

var errInvalidParams = errors.New("invalid link parameters")

// Params describe every link of the network.
type Params struct {
	// PGen is the probability that the source emits a pair on a clock tick.
	PGen float64 `mapstructure:"p-gen"`
	// PArr is the probability that a half reaches its endpoint.
	PArr float64 `mapstructure:"p-arr"`
	// TClock is the period of the source clock and of the attempt slots.
	TClock time.Duration `mapstructure:"t-clock"`
	// Length of the fibre in km.
	Length float64 `mapstructure:"length"`
	// Noise is the probability that a pair carries a bit-flip error.
	Noise float64 `mapstructure:"noise"`
}

func DefaultParams() Params {
	return Params{
		PGen:   0.02,
		PArr:   0.9,
		TClock: 10 * time.Nanosecond,
		Length: 30,
		Noise:  0.1,
	}
}

func (p *Params) Validate() error {
	switch {
	case !(p.PGen > 0 && p.PGen <= 1):
		return fmt.Errorf("%w: p-gen %v not in (0, 1]", errInvalidParams, p.PGen)
	case !(p.PArr > 0 && p.PArr <= 1):
		return fmt.Errorf("%w: p-arr %v not in (0, 1]", errInvalidParams, p.PArr)
	case p.TClock <= 0:
		return fmt.Errorf("%w: t-clock %v must be positive", errInvalidParams, p.TClock)
	case p.Length < 0:
		return fmt.Errorf("%w: length %v must not be negative", errInvalidParams, p.Length)
	case p.Noise < 0 || p.Noise > 1:
		return fmt.Errorf("%w: noise %v not in [0, 1]", errInvalidParams, p.Noise)
	}
	return nil
}

// Attempts returns the number of attempt slots in a round, ceil(1/(PGen*PArr)).
func (p *Params) Attempts() int {
	return int(math.Ceil(1 / (p.PGen * p.PArr)))
}

// Delay returns the one-way latency of the fibre, rounded up to a nanosecond.
func (p *Params) Delay() time.Duration {
	return time.Duration(math.Ceil(p.Length * float64(time.Second) / FibreSpeed))
}

func (p *Params) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddFloat64("p-gen", p.PGen)
	encoder.AddFloat64("p-arr", p.PArr)
	encoder.AddDuration("t-clock", p.TClock)
	encoder.AddFloat64("length", p.Length)
	encoder.AddFloat64("noise", p.Noise)
	encoder.AddInt("attempts", p.Attempts())
	encoder.AddDuration("delay", p.Delay())
	return nil
}
