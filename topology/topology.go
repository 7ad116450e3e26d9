// Package topology builds the network of endpoints: every pair of endpoints
// is connected by a link with its own source and classical channel.
package topology

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/common/util"
	"github.com/entanglenet/go-repeater/link"
	"github.com/entanglenet/go-repeater/repeater"
	"github.com/entanglenet/go-repeater/timesync"
)

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrNoLink          = errors.New("no link between endpoints")

	errTooFewEndpoints = errors.New("network needs at least two endpoints")
)

type Opt func(*Network)

func WithLogger(logger *zap.Logger) Opt {
	return func(n *Network) {
		n.logger = logger
	}
}

// Network is a full mesh of endpoints.
type Network struct {
	logger    *zap.Logger
	params    link.Params
	endpoints map[types.EndpointID]*repeater.Endpoint
	links     map[types.EndpointPair]*link.Link
}

// New creates endpoints 0..size-1 and links every pair of them. The source
// of the link between i and j draws from a stream derived from seed, i and j.
func New(clock *timesync.Clock, size int, params link.Params, seed int64, opts ...Opt) (*Network, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: %d", errTooFewEndpoints, size)
	}
	n := &Network{
		logger:    zap.NewNop(),
		params:    params,
		endpoints: make(map[types.EndpointID]*repeater.Endpoint, size),
		links:     make(map[types.EndpointPair]*link.Link, size*(size-1)/2),
	}
	for _, opt := range opts {
		opt(n)
	}
	for i := 0; i < size; i++ {
		id := types.EndpointID(i)
		n.endpoints[id] = repeater.New(clock, id)
	}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			a, b := n.endpoints[types.EndpointID(i)], n.endpoints[types.EndpointID(j)]
			l, err := link.New(clock, params, a, b, util.NewRand(seed, uint64(i), uint64(j)),
				link.WithLogger(n.logger.Named("link")))
			if err != nil {
				return nil, fmt.Errorf("link %d-%d: %w", i, j, err)
			}
			n.links[l.Ends] = l
		}
	}
	n.logger.Info("network created",
		zap.Int("endpoints", size),
		zap.Int("links", len(n.links)),
		zap.Inline(&n.params),
	)
	return n, nil
}

// Params returns the parameters shared by all links.
func (n *Network) Params() link.Params {
	return n.params
}

func (n *Network) Endpoint(id types.EndpointID) (*repeater.Endpoint, error) {
	e, ok := n.endpoints[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEndpoint, id)
	}
	return e, nil
}

// Endpoints returns the ids of all endpoints in ascending order.
func (n *Network) Endpoints() []types.EndpointID {
	ids := maps.Keys(n.endpoints)
	slices.Sort(ids)
	return ids
}

// Link returns the link between a and b in either order.
func (n *Network) Link(a, b types.EndpointID) (*link.Link, error) {
	l, ok := n.links[types.NewEndpointPair(a, b)]
	if !ok {
		return nil, fmt.Errorf("%w: %d-%d", ErrNoLink, a, b)
	}
	return l, nil
}

// Links returns every link ordered by its endpoints.
func (n *Network) Links() []*link.Link {
	links := maps.Values(n.links)
	slices.SortFunc(links, func(x, y *link.Link) int {
		if x.Ends.Low != y.Ends.Low {
			return int(x.Ends.Low) - int(y.Ends.Low)
		}
		return int(x.Ends.High) - int(y.Ends.High)
	})
	return links
}
