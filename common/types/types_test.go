package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEndpointPair(t *testing.T) {
	p := NewEndpointPair(7, 3)
	require.Equal(t, EndpointPair{Low: 3, High: 7}, p)
	require.Equal(t, p, NewEndpointPair(3, 7))
	require.Equal(t, EndpointID(7), p.Other(3))
	require.Equal(t, EndpointID(3), p.Other(7))
}

func TestSessionID(t *testing.T) {
	run := RunID(42)
	require.Equal(t, run, RunID(42))
	require.NotEqual(t, run, RunID(43))

	id := NewSessionID(run, 1, 0, 1)
	require.Equal(t, id, NewSessionID(run, 1, 0, 1))
	require.NotEqual(t, id, NewSessionID(run, 2, 0, 1))
	require.NotEqual(t, id, NewSessionID(run, 1, 1, 0))
	require.Equal(t, uuid.Version(5), uuid.UUID(id).Version())
	require.Len(t, id.ShortString(), 8)
	require.Equal(t, id.String()[:8], id.ShortString())
}
