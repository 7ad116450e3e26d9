package dispatch

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/common/util"
	"github.com/entanglenet/go-repeater/entangle"
	"github.com/entanglenet/go-repeater/timesync"
	"github.com/entanglenet/go-repeater/topology"
)

var _ launcher = (*NetworkLauncher)(nil)

// NetworkLauncher starts entangle sessions over the links of a network.
type NetworkLauncher struct {
	logger  *zap.Logger
	network *topology.Network
	cfg     entangle.Config
	seed    int64
	tracer  entangle.Tracer
}

type LauncherOpt func(*NetworkLauncher)

func WithSessionLogger(logger *zap.Logger) LauncherOpt {
	return func(l *NetworkLauncher) {
		l.logger = logger
	}
}

func WithSessionTracer(tracer entangle.Tracer) LauncherOpt {
	return func(l *NetworkLauncher) {
		l.tracer = tracer
	}
}

// NewLauncher returns a launcher for sessions configured with cfg. The
// teleportation outcomes of each session are drawn from a stream derived
// from seed and the session id.
func NewLauncher(network *topology.Network, cfg entangle.Config, seed int64, opts ...LauncherOpt) *NetworkLauncher {
	l := &NetworkLauncher{
		logger:  zap.NewNop(),
		network: network,
		cfg:     cfg,
		seed:    seed,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *NetworkLauncher) Launch(
	clock *timesync.Clock,
	id types.SessionID,
	initiator, responder types.EndpointID,
) (*timesync.Signal[entangle.Result], *timesync.Signal[entangle.Result], error) {
	a, err := l.network.Endpoint(initiator)
	if err != nil {
		return nil, nil, err
	}
	b, err := l.network.Endpoint(responder)
	if err != nil {
		return nil, nil, err
	}
	lk, err := l.network.Link(initiator, responder)
	if err != nil {
		return nil, nil, err
	}
	opts := []entangle.Opt{
		entangle.WithConfig(l.cfg),
		entangle.WithLogger(l.logger),
		entangle.WithRand(util.NewRand(l.seed, binary.LittleEndian.Uint64(id[:8]))),
	}
	if l.tracer != nil {
		opts = append(opts, entangle.WithTracer(l.tracer))
	}
	session, err := entangle.New(id, lk.Params, a, b, lk.Channel, lk.Source, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := a.Bind(id); err != nil {
		return nil, nil, fmt.Errorf("bind initiator: %w", err)
	}
	if err := b.Bind(id); err != nil {
		a.Release(id)
		return nil, nil, fmt.Errorf("bind responder: %w", err)
	}
	session.Start(clock)
	return session.Done(entangle.Initiator), session.Done(entangle.Responder), nil
}

func (l *NetworkLauncher) Release(id types.SessionID, initiator, responder types.EndpointID) {
	for _, eid := range []types.EndpointID{initiator, responder} {
		if e, err := l.network.Endpoint(eid); err == nil {
			e.Release(id)
		}
	}
}
