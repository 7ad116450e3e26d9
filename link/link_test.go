package link

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/repeater"
	"github.com/entanglenet/go-repeater/timesync"
)

func TestParams_Attempts(t *testing.T) {
	p := DefaultParams()
	require.Equal(t, 56, p.Attempts())

	ideal := Params{PGen: 1, PArr: 1, TClock: time.Nanosecond}
	require.Equal(t, 1, ideal.Attempts())

	prev := 0
	for _, pgen := range []float64{1, 0.5, 0.2, 0.1, 0.05, 0.02, 0.01} {
		p := Params{PGen: pgen, PArr: 0.9, TClock: time.Nanosecond}
		require.GreaterOrEqual(t, p.Attempts(), prev, "p-gen %v", pgen)
		prev = p.Attempts()
	}
	prev = 0
	for _, parr := range []float64{1, 0.9, 0.5, 0.1} {
		p := Params{PGen: 0.02, PArr: parr, TClock: time.Nanosecond}
		require.GreaterOrEqual(t, p.Attempts(), prev, "p-arr %v", parr)
		prev = p.Attempts()
	}
}

func TestParams_Delay(t *testing.T) {
	p := DefaultParams()
	require.Equal(t, 150*time.Microsecond, p.Delay())
	p.Length = 0
	require.Zero(t, p.Delay())
	p.Length = 0.0001
	require.Equal(t, time.Nanosecond, p.Delay())
}

func TestParams_Validate(t *testing.T) {
	valid := DefaultParams()
	require.NoError(t, valid.Validate())
	for _, tc := range []struct {
		desc   string
		mutate func(*Params)
	}{
		{"zero p-gen", func(p *Params) { p.PGen = 0 }},
		{"p-gen above one", func(p *Params) { p.PGen = 1.1 }},
		{"negative p-arr", func(p *Params) { p.PArr = -0.1 }},
		{"zero t-clock", func(p *Params) { p.TClock = 0 }},
		{"negative length", func(p *Params) { p.Length = -1 }},
		{"noise above one", func(p *Params) { p.Noise = 2 }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			require.ErrorIs(t, p.Validate(), errInvalidParams)
		})
	}
}

func newTestLink(tb testing.TB, params Params, seed int64) (*timesync.Clock, *Link, [2]*repeater.Endpoint) {
	tb.Helper()
	clock := timesync.New()
	tb.Cleanup(clock.Close)
	ends := [2]*repeater.Endpoint{repeater.New(clock, 0), repeater.New(clock, 1)}
	l, err := New(clock, params, ends[1], ends[0], rand.New(rand.NewSource(seed)),
		WithLogger(zaptest.NewLogger(tb)))
	require.NoError(tb, err)
	return clock, l, ends
}

func TestNew_Invalid(t *testing.T) {
	clock := timesync.New()
	t.Cleanup(clock.Close)
	e := repeater.New(clock, 0)
	_, err := New(clock, DefaultParams(), e, e, rand.New(rand.NewSource(1)))
	require.Error(t, err)

	bad := DefaultParams()
	bad.PGen = 0
	_, err = New(clock, bad, e, repeater.New(clock, 1), rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, errInvalidParams)
}

func TestClassical(t *testing.T) {
	clock, l, ends := newTestLink(t, DefaultParams(), 1)
	require.Equal(t, types.EndpointPair{Low: 0, High: 1}, l.Ends)

	require.NoError(t, l.Channel.Send(0, []byte{1}))
	require.NoError(t, l.Channel.Send(0, []byte{2}))
	require.NoError(t, l.Channel.Send(1, []byte{3}))
	require.ErrorIs(t, l.Channel.Send(7, []byte{4}), ErrNotAttached)

	type received struct {
		payload []byte
		at      time.Duration
	}
	var got []received
	in, err := ends[1].Classical(0)
	require.NoError(t, err)
	clock.Go("reader", func(task *timesync.Task) error {
		for i := 0; i < 2; i++ {
			v, err := in.Recv(task)
			if err != nil {
				return err
			}
			got = append(got, received{v, task.Now()})
		}
		return nil
	})
	require.NoError(t, clock.Run(context.Background()))
	require.Equal(t, []received{
		{[]byte{1}, 150 * time.Microsecond},
		{[]byte{2}, 150 * time.Microsecond},
	}, got)

	back, err := ends[0].Classical(1)
	require.NoError(t, err)
	require.Equal(t, 1, back.Len())
}

func TestSource(t *testing.T) {
	params := Params{PGen: 1, PArr: 1, TClock: 10, Length: 0.002}
	require.Equal(t, time.Duration(10), params.Delay())
	clock, l, ends := newTestLink(t, params, 1)

	var arrivals [2][]time.Duration
	var pairs [2][]uint64
	var sides [2][]epr.Side
	for i, e := range ends {
		port, err := e.Arrivals(ends[1-i].ID())
		require.NoError(t, err)
		clock.Go("collector", func(task *timesync.Task) error {
			for {
				h, err := port.Recv(task)
				if err != nil {
					return err
				}
				sides[i] = append(sides[i], h.Side())
				arrivals[i] = append(arrivals[i], task.Now())
				pairs[i] = append(pairs[i], h.Pair().ID)
			}
		})
	}
	l.Source.Start()
	l.Source.Start()
	require.True(t, l.Source.On())
	require.NoError(t, clock.RunUntil(context.Background(), 35))
	l.Source.Stop()
	require.False(t, l.Source.On())
	require.NoError(t, clock.RunUntil(context.Background(), 100))

	// ticks at 0, 10, 20 and 30; the tick at 40 finds the source off
	want := []time.Duration{5, 15, 25, 35}
	require.Equal(t, want, arrivals[0])
	require.Equal(t, want, arrivals[1])
	require.Equal(t, []uint64{1, 2, 3, 4}, pairs[0])
	require.Equal(t, pairs[0], pairs[1])
	require.Equal(t, []epr.Side{epr.Left, epr.Left, epr.Left, epr.Left}, sides[0])
	require.Equal(t, []epr.Side{epr.Right, epr.Right, epr.Right, epr.Right}, sides[1])
	require.EqualValues(t, 4, l.Source.Emitted())
}

func TestSource_Noise(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		noise float64
	}{
		{"noiseless", 0},
		{"always flipped", 1},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			params := Params{PGen: 1, PArr: 1, TClock: 10, Length: 0.002, Noise: tc.noise}
			clock, l, ends := newTestLink(t, params, 1)
			port, err := ends[0].Arrivals(ends[1].ID())
			require.NoError(t, err)
			var flipped []bool
			clock.Go("collector", func(task *timesync.Task) error {
				for {
					h, err := port.Recv(task)
					if err != nil {
						return err
					}
					flipped = append(flipped, h.Pair().Flipped())
				}
			})

			before := testutil.ToFloat64(pairsFlipped)
			l.Source.Start()
			require.NoError(t, clock.RunUntil(context.Background(), 35))
			l.Source.Stop()

			require.Len(t, flipped, 4)
			for _, f := range flipped {
				require.Equal(t, tc.noise == 1, f)
			}
			require.Equal(t, 4*tc.noise, testutil.ToFloat64(pairsFlipped)-before)
		})
	}
}

func TestSource_Deterministic(t *testing.T) {
	params := Params{PGen: 0.3, PArr: 0.5, TClock: 10, Length: 0.002, Noise: 0.5}
	trace := func() []uint64 {
		clock, l, ends := newTestLink(t, params, 42)
		var ids []uint64
		port, err := ends[0].Arrivals(1)
		require.NoError(t, err)
		clock.Go("collector", func(task *timesync.Task) error {
			for {
				h, err := port.Recv(task)
				if err != nil {
					return err
				}
				ids = append(ids, h.Pair().ID)
			}
		})
		l.Source.Start()
		require.NoError(t, clock.RunUntil(context.Background(), 10_000))
		return ids
	}
	first := trace()
	require.NotEmpty(t, first)
	require.Equal(t, first, trace())
}
