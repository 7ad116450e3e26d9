package link

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/log"
	"github.com/entanglenet/go-repeater/repeater"
	"github.com/entanglenet/go-repeater/timesync"
)

var ErrNotAttached = errors.New("endpoint not attached to link")

// Link connects two endpoints with a classical channel and a pair source.
type Link struct {
	Params  Params
	Ends    types.EndpointPair
	Channel *Classical
	Source  *Source
}

type Opt func(*Link)

func WithLogger(logger *zap.Logger) Opt {
	return func(l *Link) {
		l.Source.logger = logger
	}
}

// New connects a and b. rng drives the source of the link.
func New(
	clock *timesync.Clock,
	params Params,
	a, b *repeater.Endpoint,
	rng *rand.Rand,
	opts ...Opt,
) (*Link, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if a.ID() == b.ID() {
		return nil, fmt.Errorf("link endpoint %d to itself", a.ID())
	}
	if b.ID() < a.ID() {
		a, b = b, a
	}
	a.Connect(b.ID())
	b.Connect(a.ID())

	ends := types.NewEndpointPair(a.ID(), b.ID())
	channel := &Classical{
		clock: clock,
		delay: params.Delay(),
		ends:  ends,
		ports: make(map[types.EndpointID]*timesync.Port[[]byte], 2),
	}
	source := &Source{
		logger: zap.NewNop(),
		clock:  clock,
		params: params,
		rng:    rng,
		ends:   ends,
	}
	for i, pair := range [][2]*repeater.Endpoint{{a, b}, {b, a}} {
		in, err := pair[0].Classical(pair[1].ID())
		if err != nil {
			return nil, err
		}
		channel.ports[pair[0].ID()] = in
		arrivals, err := pair[0].Arrivals(pair[1].ID())
		if err != nil {
			return nil, err
		}
		source.targets[i] = arrivals
	}
	l := &Link{Params: params, Ends: ends, Channel: channel, Source: source}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Classical delivers messages to the other endpoint after the fibre delay.
// Messages between the same endpoints are delivered in send order.
type Classical struct {
	clock *timesync.Clock
	delay time.Duration
	ends  types.EndpointPair
	ports map[types.EndpointID]*timesync.Port[[]byte]
}

// Send sends payload from endpoint from to the other end.
func (c *Classical) Send(from types.EndpointID, payload []byte) error {
	if from != c.ends.Low && from != c.ends.High {
		return fmt.Errorf("%w: %d", ErrNotAttached, from)
	}
	c.ports[c.ends.Other(from)].DeliverAfter(c.delay, payload)
	classicalBytes.Add(float64(len(payload)))
	return nil
}

// Delay returns the latency of the channel.
func (c *Classical) Delay() time.Duration {
	return c.delay
}

// Source is a midpoint source emitting pairs towards both endpoints.
type Source struct {
	logger  *zap.Logger
	clock   *timesync.Clock
	params  Params
	rng     *rand.Rand
	ends    types.EndpointPair
	targets [2]*timesync.Port[*epr.Half]

	on      bool
	epoch   uint64
	emitted uint64
}

// Start turns the source on. The first tick happens immediately.
func (s *Source) Start() {
	if s.on {
		return
	}
	s.on = true
	s.epoch++
	epoch := s.epoch
	sourceOn.Inc()
	s.logger.Debug("source on", zap.Inline(s.ends), log.ZVirtual("at", s.clock.Now()))
	s.clock.Schedule(s.clock.Now(), func() { s.tick(epoch) })
}

// Stop turns the source off. Halves already in flight still arrive.
func (s *Source) Stop() {
	if !s.on {
		return
	}
	s.on = false
	sourceOff.Inc()
	s.logger.Debug("source off",
		zap.Inline(s.ends),
		log.ZVirtual("at", s.clock.Now()),
		zap.Uint64("emitted", s.emitted),
	)
}

// On reports whether the source is emitting.
func (s *Source) On() bool {
	return s.on
}

// Emitted returns the number of pairs emitted so far.
func (s *Source) Emitted() uint64 {
	return s.emitted
}

func (s *Source) tick(epoch uint64) {
	if !s.on || epoch != s.epoch {
		return
	}
	s.emit()
	s.clock.After(s.params.TClock, func() { s.tick(epoch) })
}

func (s *Source) emit() {
	if s.rng.Float64() >= s.params.PGen {
		return
	}
	s.emitted++
	pairsEmitted.Inc()
	pair := epr.NewPair(s.emitted, s.clock.Now(), s.rng.Intn(2) == 1, s.rng.Float64() < s.params.Noise)
	if pair.Flipped() {
		pairsFlipped.Inc()
	}
	for i, port := range s.targets {
		if s.rng.Float64() >= s.params.PArr {
			halvesLost.Inc()
			continue
		}
		halvesSent.Inc()
		port.DeliverAfter(s.params.Delay()/2, pair.Half(epr.Side(i)))
	}
}
