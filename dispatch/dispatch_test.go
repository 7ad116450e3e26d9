package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/entangle"
	"github.com/entanglenet/go-repeater/link"
	"github.com/entanglenet/go-repeater/log/logtest"
	"github.com/entanglenet/go-repeater/timesync"
	"github.com/entanglenet/go-repeater/topology"
)

var testEndpoints = []types.EndpointID{0, 1, 2, 3}

type testTracer struct {
	starts []time.Duration
	ends   []Record
}

func (tr *testTracer) OnSessionStart(_ types.SessionID, initiator, responder types.EndpointID, at time.Duration) {
	tr.starts = append(tr.starts, at)
}

func (tr *testTracer) OnSessionEnd(r Record) {
	tr.ends = append(tr.ends, r)
}

// fakeLaunch finishes every session after 110ns, the initiator 10ns before
// the responder. The status is picked by status.
func fakeLaunch(status func(seq int) entangle.Status) func(
	*timesync.Clock, types.SessionID, types.EndpointID, types.EndpointID,
) (*timesync.Signal[entangle.Result], *timesync.Signal[entangle.Result], error) {
	seq := 0
	return func(
		clock *timesync.Clock, id types.SessionID, initiator, responder types.EndpointID,
	) (*timesync.Signal[entangle.Result], *timesync.Signal[entangle.Result], error) {
		seq++
		st := status(seq)
		initDone := timesync.NewSignal[entangle.Result](clock)
		respDone := timesync.NewSignal[entangle.Result](clock)
		started := clock.Now()
		result := func(role entangle.Role, self, peer types.EndpointID) entangle.Result {
			res := entangle.Result{
				Session:  id,
				Role:     role,
				Endpoint: self,
				Peer:     peer,
				Status:   st,
				Started:  started,
				Finished: clock.Now(),
			}
			if st == entangle.StatusDelivered && role == entangle.Responder {
				res.Fidelity = 1
			}
			return res
		}
		clock.After(100, func() { initDone.Raise(result(entangle.Initiator, initiator, responder)) })
		clock.After(110, func() { respDone.Raise(result(entangle.Responder, responder, initiator)) })
		return initDone, respDone, nil
	}
}

func newTestDispatcher(tb testing.TB, l launcher, opts ...Opt) (*timesync.Clock, *Dispatcher) {
	tb.Helper()
	clock := timesync.New()
	tb.Cleanup(clock.Close)
	opts = append([]Opt{WithLogger(logtest.New(tb).Zap())}, opts...)
	d, err := New(testEndpoints, l, rand.New(rand.NewSource(1)), types.RunID(1), opts...)
	require.NoError(tb, err)
	return clock, d
}

func TestDispatcher_Sequential(t *testing.T) {
	ctrl := gomock.NewController(t)
	ml := NewMocklauncher(ctrl)
	tracer := &testTracer{}
	clock, d := newTestDispatcher(t, ml,
		WithConfig(Config{MaxSessions: 3, History: 10}),
		WithTracer(tracer),
	)

	var launched []types.SessionID
	fake := fakeLaunch(func(int) entangle.Status { return entangle.StatusDelivered })
	ml.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(
			clock *timesync.Clock, id types.SessionID, initiator, responder types.EndpointID,
		) (*timesync.Signal[entangle.Result], *timesync.Signal[entangle.Result], error) {
			launched = append(launched, id)
			return fake(clock, id, initiator, responder)
		}).Times(3)
	var released []types.SessionID
	ml.EXPECT().Release(gomock.Any(), gomock.Any(), gomock.Any()).Do(
		func(id types.SessionID, _, _ types.EndpointID) {
			released = append(released, id)
		}).Times(3)

	before := testutil.ToFloat64(sessionsLaunched)
	d.Start(clock)
	require.NoError(t, clock.Run(context.Background()))
	require.Equal(t, 3.0, testutil.ToFloat64(sessionsLaunched)-before)

	require.Equal(t, launched, released)
	// each session starts once the previous responder finished
	require.Equal(t, []time.Duration{0, 110, 220}, tracer.starts)
	want := []Record{
		{Seq: 1, Status: "delivered", Fidelity: 1, Started: 0, Finished: 110},
		{Seq: 2, Status: "delivered", Fidelity: 1, Started: 110, Finished: 220},
		{Seq: 3, Status: "delivered", Fidelity: 1, Started: 220, Finished: 330},
	}
	opts := cmpopts.IgnoreFields(Record{}, "Session", "Initiator", "Responder")
	if diff := cmp.Diff(want, tracer.ends, opts); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, tracer.ends, d.History())
	for i, r := range tracer.ends {
		require.NotEqual(t, r.Initiator, r.Responder)
		require.Equal(t, launched[i].String(), r.Session)
	}
}

func TestDispatcher_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	ml := NewMocklauncher(ctrl)
	clock, d := newTestDispatcher(t, ml, WithConfig(Config{MaxSessions: 5, History: 2}))
	statuses := []entangle.Status{
		entangle.StatusDelivered,
		entangle.StatusAborted,
		entangle.StatusDelivered,
		entangle.StatusExhausted,
		entangle.StatusAborted,
	}
	ml.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(fakeLaunch(func(seq int) entangle.Status { return statuses[seq-1] })).
		Times(5)
	ml.EXPECT().Release(gomock.Any(), gomock.Any(), gomock.Any()).Times(5)

	d.Start(clock)
	require.NoError(t, clock.Run(context.Background()))
	require.Equal(t, Stats{
		Sessions:     5,
		Delivered:    2,
		Aborted:      2,
		Exhausted:    1,
		MeanFidelity: 1,
	}, d.Stats())

	history := d.History()
	require.Len(t, history, 2)
	require.Equal(t, uint64(4), history[0].Seq)
	require.Equal(t, uint64(5), history[1].Seq)
}

func TestDispatcher_LaunchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ml := NewMocklauncher(ctrl)
	clock, d := newTestDispatcher(t, ml)
	errLaunch := errors.New("launch failed")
	ml.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil, errLaunch)

	d.Start(clock)
	require.ErrorIs(t, clock.Run(context.Background()), errLaunch)
	require.Zero(t, d.Stats().Sessions)
}

func TestDispatcher_Sample(t *testing.T) {
	_, d := newTestDispatcher(t, NewMocklauncher(gomock.NewController(t)))
	counts := map[[2]types.EndpointID]int{}
	const samples = 12_000
	for i := 0; i < samples; i++ {
		a, b := d.sample()
		require.NotEqual(t, a, b)
		counts[[2]types.EndpointID{a, b}]++
	}
	// every ordered pair of distinct endpoints
	require.Len(t, counts, 12)
	for pair, n := range counts {
		require.InDelta(t, samples/12, n, 150, "pair %v", pair)
	}
}

func TestNew_Invalid(t *testing.T) {
	ml := NewMocklauncher(gomock.NewController(t))
	rng := rand.New(rand.NewSource(1))
	_, err := New([]types.EndpointID{1}, ml, rng, types.RunID(1))
	require.ErrorIs(t, err, errTooFewEndpoints)

	_, err = New(testEndpoints, ml, rng, types.RunID(1), WithConfig(Config{History: 0}))
	require.Error(t, err)
}

func runNetwork(tb testing.TB, params link.Params, sessions int, seed int64) (*topology.Network, *Dispatcher) {
	tb.Helper()
	logger := logtest.New(tb).Zap()
	clock := timesync.New(timesync.WithLogger(logger.Named("clock")))
	tb.Cleanup(clock.Close)
	network, err := topology.New(clock, 4, params, seed, topology.WithLogger(logger.Named("topology")))
	require.NoError(tb, err)
	l := NewLauncher(network, entangle.DefaultConfig(), seed, WithSessionLogger(logger.Named("entangle")))
	d, err := New(network.Endpoints(), l, rand.New(rand.NewSource(seed)), types.RunID(seed),
		WithLogger(logger.Named("dispatch")),
		WithConfig(Config{MaxSessions: sessions, History: 100}),
	)
	require.NoError(tb, err)
	d.Start(clock)
	require.NoError(tb, clock.Run(context.Background()))
	return network, d
}

func TestNetwork_Ideal(t *testing.T) {
	network, d := runNetwork(t, link.Params{PGen: 1, PArr: 1, TClock: 10, Length: 0.002}, 6, 3)
	require.Equal(t, Stats{Sessions: 6, Delivered: 6, MeanFidelity: 1}, d.Stats())

	history := d.History()
	require.Len(t, history, 6)
	for i := 1; i < len(history); i++ {
		require.GreaterOrEqual(t, history[i].Started, history[i-1].Finished)
	}
	for _, r := range history {
		require.Equal(t, [2]int{1, 1}, r.Rounds)
	}
	for _, id := range network.Endpoints() {
		e, err := network.Endpoint(id)
		require.NoError(t, err)
		_, bound := e.Bound()
		require.False(t, bound)
		require.Empty(t, e.Memory().Used())
	}
	for _, l := range network.Links() {
		require.False(t, l.Source.On())
	}
}

func TestNetwork_Default(t *testing.T) {
	_, d := runNetwork(t, link.DefaultParams(), 4, 11)
	stats := d.Stats()
	require.EqualValues(t, 4, stats.Sessions)
	require.EqualValues(t, 4, stats.Delivered+stats.Aborted)
	require.Zero(t, stats.Exhausted)

	for _, r := range d.History() {
		require.Greater(t, r.Finished, r.Started)
		require.Positive(t, r.Rounds[0])
		if r.Status == entangle.StatusAborted.String() {
			require.Zero(t, r.Fidelity)
		}
	}
}
