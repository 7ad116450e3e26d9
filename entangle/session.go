// Package entangle implements the session that distributes a state between
// two endpoints of a link. Each side of a session runs as a task on the
// virtual clock: both sides agree on a start time, run attempt rounds until
// they latch the same slot twice, compare the parity of the two resources and
// finally teleport a state from the initiator to the responder.
package entangle

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/entanglenet/go-repeater/codec"
	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/link"
	"github.com/entanglenet/go-repeater/log"
	"github.com/entanglenet/go-repeater/repeater"
	"github.com/entanglenet/go-repeater/timesync"
)

var (
	// ErrProtocolViolation is returned when a side receives a message it did
	// not expect. It fails the task and stops the clock.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrRoundsExhausted is the error of a session that hit Config.MaxRounds.
	ErrRoundsExhausted = errors.New("rounds exhausted")
	// ErrInconsistent is the error of a session whose parity check failed.
	ErrInconsistent = errors.New("inconsistent resources")

	errSameEndpoint = errors.New("initiator and responder are the same endpoint")
)

// Role of a side in a session.
type Role uint8

const (
	// Initiator owns the link source, chooses the start time and sends the state.
	Initiator Role = iota
	// Responder follows the start time of the initiator and receives the state.
	Responder
)

func (r Role) String() string {
	if r == Initiator {
		return "initiator"
	}
	return "responder"
}

// Status is the terminal status of a session side.
type Status uint8

const (
	// StatusDelivered means the state reached the responder.
	StatusDelivered Status = iota
	// StatusAborted means the parity check failed and both slots were cleared.
	StatusAborted
	// StatusExhausted means a generation hit Config.MaxRounds.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusAborted:
		return "aborted"
	case StatusExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Generation reports one completed resource generation.
type Generation struct {
	Slot   types.Slot
	Index  int
	Rounds int
	// Start is the agreed start time and End the time the generation finished.
	Start, End time.Duration
	Exhausted  bool
}

func (g *Generation) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint8("slot", uint8(g.Slot))
	encoder.AddInt("index", g.Index)
	encoder.AddInt("rounds", g.Rounds)
	encoder.AddInt64("start", int64(g.Start))
	encoder.AddInt64("end", int64(g.End))
	encoder.AddBool("exhausted", g.Exhausted)
	return nil
}

// Result is raised on the Done signal of each side.
type Result struct {
	Session     types.SessionID
	Role        Role
	Endpoint    types.EndpointID
	Peer        types.EndpointID
	Status      Status
	Generations [types.NumSlots]Generation
	// Parity holds the local and the peer parity bits.
	Parity [2]uint8
	// Correction holds the m0 and m1 bits of the handoff.
	Correction [2]uint8
	// Applied and Fidelity are only set on the responder.
	Applied  []epr.Operator
	Fidelity float64

	Started, Finished time.Duration
}

// Err maps the status to an error. Delivered sessions return nil.
func (r *Result) Err() error {
	switch r.Status {
	case StatusAborted:
		return ErrInconsistent
	case StatusExhausted:
		return ErrRoundsExhausted
	}
	return nil
}

func (r *Result) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("session", r.Session.ShortString())
	encoder.AddString("role", r.Role.String())
	encoder.AddUint32("endpoint", r.Endpoint.Uint32())
	encoder.AddUint32("peer", r.Peer.Uint32())
	encoder.AddString("status", r.Status.String())
	encoder.AddInt("rounds first", r.Generations[types.SlotFirst].Rounds)
	encoder.AddInt("rounds second", r.Generations[types.SlotSecond].Rounds)
	if r.Status != StatusExhausted {
		encoder.AddUint8("parity", r.Parity[0])
		encoder.AddUint8("peer parity", r.Parity[1])
	}
	if r.Status == StatusDelivered {
		encoder.AddUint8("m0", r.Correction[0])
		encoder.AddUint8("m1", r.Correction[1])
		if r.Role == Responder {
			encoder.AddFloat64("fidelity", r.Fidelity)
		}
	}
	encoder.AddInt64("started", int64(r.Started))
	encoder.AddInt64("finished", int64(r.Finished))
	return nil
}

type transport interface {
	Send(from types.EndpointID, payload []byte) error
}

type source interface {
	Start()
	Stop()
}

type Opt func(*Session)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(s *Session) {
		s.cfg = cfg
	}
}

func WithTracer(tracer Tracer) Opt {
	return func(s *Session) {
		s.tracer = tracer
	}
}

// WithRand sets the generator of the teleportation measurement outcomes.
func WithRand(rng *rand.Rand) Opt {
	return func(s *Session) {
		s.rng = rng
	}
}

// Session is a single attempt to hand a state from initiator to responder.
type Session struct {
	id      types.SessionID
	cfg     Config
	params  link.Params
	logger  *zap.Logger
	tracer  Tracer
	rng     *rand.Rand
	channel transport
	source  source
	sides   [2]*side
}

// New prepares a session over the link connecting initiator and responder.
// The source is switched by the initiator only.
func New(
	id types.SessionID,
	params link.Params,
	initiator, responder *repeater.Endpoint,
	channel transport,
	src source,
	opts ...Opt,
) (*Session, error) {
	s := &Session{
		id:      id,
		cfg:     DefaultConfig(),
		params:  params,
		logger:  zap.NewNop(),
		tracer:  noopTracer{},
		rng:     rand.New(rand.NewSource(0)),
		channel: channel,
		source:  src,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if initiator.ID() == responder.ID() {
		return nil, fmt.Errorf("%w: %d", errSameEndpoint, initiator.ID())
	}
	s.logger = s.logger.With(log.ZShortStringer("session", id))
	for role, ends := range [][2]*repeater.Endpoint{{initiator, responder}, {responder, initiator}} {
		sd, err := newSide(s, Role(role), ends[0], ends[1].ID())
		if err != nil {
			return nil, err
		}
		s.sides[role] = sd
	}
	return s, nil
}

func (s *Session) ID() types.SessionID {
	return s.id
}

// Done returns the signal raised when the side with role terminates.
func (s *Session) Done(role Role) *timesync.Signal[Result] {
	return s.sides[role].done
}

// Start launches both sides on clock.
func (s *Session) Start(clock *timesync.Clock) {
	sessionStarted.Inc()
	s.logger.Debug("session started",
		zap.Uint32("initiator", s.sides[Initiator].self.ID().Uint32()),
		zap.Uint32("responder", s.sides[Responder].self.ID().Uint32()),
		log.ZVirtual("at", clock.Now()),
		zap.Inline(&s.params),
		zap.Inline(&s.cfg),
	)
	for _, sd := range s.sides {
		sd.done = timesync.NewSignal[Result](clock)
		clock.Go(fmt.Sprintf("%s/%s", s.id.ShortString(), sd.role), sd.run)
	}
}

type side struct {
	session   *Session
	role      Role
	self      *repeater.Endpoint
	peer      types.EndpointID
	classical *timesync.Port[[]byte]
	arrivals  *timesync.Port[*epr.Half]
	logger    *zap.Logger
	done      *timesync.Signal[Result]
}

func newSide(s *Session, role Role, self *repeater.Endpoint, peer types.EndpointID) (*side, error) {
	classical, err := self.Classical(peer)
	if err != nil {
		return nil, err
	}
	arrivals, err := self.Arrivals(peer)
	if err != nil {
		return nil, err
	}
	return &side{
		session:   s,
		role:      role,
		self:      self,
		peer:      peer,
		classical: classical,
		arrivals:  arrivals,
		logger:    s.logger.With(zap.Stringer("role", role), zap.Uint32("endpoint", self.ID().Uint32())),
	}, nil
}

func (sd *side) run(t *timesync.Task) error {
	res := Result{
		Session:  sd.session.id,
		Role:     sd.role,
		Endpoint: sd.self.ID(),
		Peer:     sd.peer,
		Started:  t.Now(),
	}
	for slot := types.SlotFirst; slot < types.NumSlots; slot++ {
		gen := &generation{side: sd, slot: slot, done: timesync.NewSignal[Generation](t.Clock())}
		t.Clock().Go(fmt.Sprintf("%s/%s/%d", sd.session.id.ShortString(), sd.role, slot), gen.run)
		out, err := gen.done.Wait(t)
		if err != nil {
			return err
		}
		res.Generations[slot] = out
		if out.Exhausted {
			sd.self.Memory().Clear()
			return sd.finish(t, &res, StatusExhausted)
		}
	}

	local, peer, err := checkConsistency(t, sd)
	if err != nil {
		return err
	}
	res.Parity = [2]uint8{local, peer}
	if local != peer {
		sd.self.Memory().Clear()
		return sd.finish(t, &res, StatusAborted)
	}
	if err := handoff(t, sd, &res); err != nil {
		return err
	}
	return sd.finish(t, &res, StatusDelivered)
}

func (sd *side) finish(t *timesync.Task, res *Result, status Status) error {
	res.Status = status
	res.Finished = t.Now()
	if sd.role == Responder {
		switch status {
		case StatusDelivered:
			sessionDelivered.Inc()
		case StatusAborted:
			sessionAborted.Inc()
		case StatusExhausted:
			sessionExhausted.Inc()
		}
	}
	sd.logger.Debug("session side finished", zap.Object("result", res))
	sd.session.tracer.OnStop(*res)
	sd.done.Raise(*res)
	return nil
}

func (sd *side) send(msg Message) error {
	buf, err := codec.Encode(&msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Kind, err)
	}
	if err := sd.session.channel.Send(sd.self.ID(), buf); err != nil {
		return fmt.Errorf("send %s message: %w", msg.Kind, err)
	}
	sd.session.tracer.OnMessageSent(sd.role, msg)
	return nil
}

// expect blocks for the next classical message, which must be of kind.
func (sd *side) expect(t *timesync.Task, kind Kind) (Message, error) {
	buf, err := sd.classical.Recv(t)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := codec.Decode(buf, &msg); err != nil {
		violations.Inc()
		return msg, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	sd.session.tracer.OnMessageReceived(sd.role, msg)
	if msg.Kind != kind {
		violations.Inc()
		sd.logger.Debug("unexpected message", zap.Stringer("expected", kind), zap.Inline(&msg))
		return msg, fmt.Errorf("%w: %s expected %s message, received %s",
			ErrProtocolViolation, sd.role, kind, msg.Kind)
	}
	return msg, nil
}
