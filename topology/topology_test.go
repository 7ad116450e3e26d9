package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/link"
	"github.com/entanglenet/go-repeater/log/logtest"
	"github.com/entanglenet/go-repeater/timesync"
)

func newTestNetwork(tb testing.TB, size int, seed int64) (*timesync.Clock, *Network) {
	tb.Helper()
	clock := timesync.New()
	tb.Cleanup(clock.Close)
	n, err := New(clock, size, link.DefaultParams(), seed, WithLogger(logtest.New(tb).Zap()))
	require.NoError(tb, err)
	return clock, n
}

func TestNew(t *testing.T) {
	_, n := newTestNetwork(t, 4, 1)
	require.Equal(t, []types.EndpointID{0, 1, 2, 3}, n.Endpoints())
	require.Len(t, n.Links(), 6)
	require.Equal(t, link.DefaultParams(), n.Params())

	for _, a := range n.Endpoints() {
		e, err := n.Endpoint(a)
		require.NoError(t, err)
		require.Equal(t, a, e.ID())
		for _, b := range n.Endpoints() {
			if a == b {
				continue
			}
			_, err := e.Classical(b)
			require.NoError(t, err)
			_, err = e.Arrivals(b)
			require.NoError(t, err)

			l, err := n.Link(a, b)
			require.NoError(t, err)
			back, err := n.Link(b, a)
			require.NoError(t, err)
			require.Same(t, l, back)
			require.Equal(t, types.NewEndpointPair(a, b), l.Ends)
		}
	}

	_, err := n.Endpoint(4)
	require.ErrorIs(t, err, ErrUnknownEndpoint)
	_, err = n.Link(1, 1)
	require.ErrorIs(t, err, ErrNoLink)
	_, err = n.Link(1, 9)
	require.ErrorIs(t, err, ErrNoLink)
}

func TestNew_Invalid(t *testing.T) {
	clock := timesync.New()
	t.Cleanup(clock.Close)
	_, err := New(clock, 1, link.DefaultParams(), 1)
	require.ErrorIs(t, err, errTooFewEndpoints)

	bad := link.DefaultParams()
	bad.PArr = 0
	_, err = New(clock, 3, bad, 1)
	require.Error(t, err)
}

func TestLinks_Ordered(t *testing.T) {
	_, n := newTestNetwork(t, 3, 1)
	var ends []types.EndpointPair
	for _, l := range n.Links() {
		ends = append(ends, l.Ends)
	}
	require.Equal(t, []types.EndpointPair{{0, 1}, {0, 2}, {1, 2}}, ends)
}

func TestSources_Independent(t *testing.T) {
	emitted := func(seed int64) []uint64 {
		clock, n := newTestNetwork(t, 3, seed)
		for _, l := range n.Links() {
			l.Source.Start()
		}
		require.NoError(t, clock.RunUntil(context.Background(), 100_000))
		var counts []uint64
		for _, l := range n.Links() {
			l.Source.Stop()
			counts = append(counts, l.Source.Emitted())
		}
		return counts
	}
	first := emitted(7)
	require.Equal(t, first, emitted(7))
	// 10000 ticks at p-gen 0.02 per link
	for _, c := range first {
		require.InDelta(t, 200, c, 80)
	}
	require.False(t, first[0] == first[1] && first[1] == first[2])
}
