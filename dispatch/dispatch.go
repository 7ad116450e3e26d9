// Package dispatch runs sessions one after another between randomly chosen
// pairs of endpoints.
package dispatch

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/entangle"
	"github.com/entanglenet/go-repeater/log"
	"github.com/entanglenet/go-repeater/timesync"
)

var errTooFewEndpoints = errors.New("dispatcher needs at least two endpoints")

// Record summarizes a finished session.
type Record struct {
	Seq       uint64  `json:"seq"`
	Session   string  `json:"session"`
	Initiator uint32  `json:"initiator"`
	Responder uint32  `json:"responder"`
	Status    string  `json:"status"`
	Rounds    [2]int  `json:"rounds"`
	Fidelity  float64 `json:"fidelity"`
	Started   int64   `json:"started_ns"`
	Finished  int64   `json:"finished_ns"`
}

func newRecord(seq uint64, res *entangle.Result) Record {
	return Record{
		Seq:       seq,
		Session:   res.Session.String(),
		Initiator: res.Peer.Uint32(),
		Responder: res.Endpoint.Uint32(),
		Status:    res.Status.String(),
		Rounds: [2]int{
			res.Generations[types.SlotFirst].Rounds,
			res.Generations[types.SlotSecond].Rounds,
		},
		Fidelity: res.Fidelity,
		Started:  int64(res.Started),
		Finished: int64(res.Finished),
	}
}

func (r *Record) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddUint64("seq", r.Seq)
	encoder.AddString("session", r.Session)
	encoder.AddUint32("initiator", r.Initiator)
	encoder.AddUint32("responder", r.Responder)
	encoder.AddString("status", r.Status)
	encoder.AddInt("rounds first", r.Rounds[0])
	encoder.AddInt("rounds second", r.Rounds[1])
	encoder.AddFloat64("fidelity", r.Fidelity)
	encoder.AddInt64("started", r.Started)
	encoder.AddInt64("finished", r.Finished)
	return nil
}

// Stats aggregates every session of a run, including the ones evicted from
// the history.
type Stats struct {
	Sessions  uint64 `json:"sessions"`
	Delivered uint64 `json:"delivered"`
	Aborted   uint64 `json:"aborted"`
	Exhausted uint64 `json:"exhausted"`
	// MeanFidelity is averaged over delivered sessions.
	MeanFidelity float64 `json:"mean_fidelity"`
}

type Opt func(*Dispatcher)

func WithLogger(logger *zap.Logger) Opt {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(d *Dispatcher) {
		d.cfg = cfg
	}
}

func WithTracer(tracer Tracer) Opt {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// Dispatcher launches one session at a time. The first sampled endpoint of
// each pair is the initiator.
type Dispatcher struct {
	logger    *zap.Logger
	cfg       Config
	tracer    Tracer
	run       uuid.UUID
	rng       *rand.Rand
	endpoints []types.EndpointID
	launcher  launcher

	seq         uint64
	stats       Stats
	fidelitySum float64
	history     *lru.Cache[types.SessionID, Record]
}

// New creates a dispatcher over endpoints. Session ids are derived from run.
func New(
	endpoints []types.EndpointID,
	l launcher,
	rng *rand.Rand,
	run uuid.UUID,
	opts ...Opt,
) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:    zap.NewNop(),
		cfg:       DefaultConfig(),
		tracer:    noopTracer{},
		run:       run,
		rng:       rng,
		endpoints: endpoints,
		launcher:  l,
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(endpoints) < 2 {
		return nil, fmt.Errorf("%w: %d", errTooFewEndpoints, len(endpoints))
	}
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}
	history, err := lru.New[types.SessionID, Record](d.cfg.History)
	if err != nil {
		return nil, fmt.Errorf("create history: %w", err)
	}
	d.history = history
	return d, nil
}

// Start runs the dispatcher as a task on clock.
func (d *Dispatcher) Start(clock *timesync.Clock) *timesync.Task {
	return clock.Go("dispatcher", d.Run)
}

// Run launches sessions until Config.MaxSessions is reached or the clock is
// closed. A session starts only after the previous one finished on both sides.
func (d *Dispatcher) Run(t *timesync.Task) error {
	d.logger.Info("dispatcher started",
		zap.Stringer("run", d.run),
		zap.Int("endpoints", len(d.endpoints)),
		zap.Inline(&d.cfg),
	)
	for d.cfg.MaxSessions == 0 || d.seq < uint64(d.cfg.MaxSessions) {
		if err := d.next(t); err != nil {
			return err
		}
	}
	d.logger.Info("dispatcher finished",
		zap.Uint64("sessions", d.stats.Sessions),
		log.ZVirtual("at", t.Now()),
	)
	return nil
}

func (d *Dispatcher) next(t *timesync.Task) error {
	initiator, responder := d.sample()
	d.seq++
	id := types.NewSessionID(d.run, d.seq, initiator, responder)
	started := t.Now()
	d.tracer.OnSessionStart(id, initiator, responder, started)

	initDone, respDone, err := d.launcher.Launch(t.Clock(), id, initiator, responder)
	if err != nil {
		return fmt.Errorf("launch session %d (%d->%d): %w", d.seq, initiator, responder, err)
	}
	sessionsLaunched.Inc()
	sessionsActive.Inc()
	defer sessionsActive.Dec()

	res, err := respDone.Wait(t)
	if err != nil {
		return err
	}
	// the initiator may still be finishing at the same instant
	if _, err := initDone.Wait(t); err != nil {
		return err
	}
	d.launcher.Release(id, initiator, responder)

	record := newRecord(d.seq, &res)
	d.account(&res)
	d.history.Add(id, record)
	sessionDuration.WithLabelValues(record.Status).Observe((t.Now() - started).Seconds())
	d.logger.Debug("session finished", zap.Inline(&record))
	d.tracer.OnSessionEnd(record)
	return nil
}

// sample picks two distinct endpoints uniformly at random.
func (d *Dispatcher) sample() (types.EndpointID, types.EndpointID) {
	i := d.rng.Intn(len(d.endpoints))
	j := d.rng.Intn(len(d.endpoints) - 1)
	if j >= i {
		j++
	}
	return d.endpoints[i], d.endpoints[j]
}

func (d *Dispatcher) account(res *entangle.Result) {
	d.stats.Sessions++
	switch res.Status {
	case entangle.StatusDelivered:
		d.stats.Delivered++
		d.fidelitySum += res.Fidelity
		d.stats.MeanFidelity = d.fidelitySum / float64(d.stats.Delivered)
	case entangle.StatusAborted:
		d.stats.Aborted++
	case entangle.StatusExhausted:
		d.stats.Exhausted++
	}
}

// Stats returns the totals of the run so far.
func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// History returns the most recent records, oldest first.
func (d *Dispatcher) History() []Record {
	return d.history.Values()
}
