package dispatch

import (
	"time"

	"github.com/entanglenet/go-repeater/common/types"
)

type Tracer interface {
	OnSessionStart(id types.SessionID, initiator, responder types.EndpointID, at time.Duration)
	OnSessionEnd(Record)
}

var _ Tracer = noopTracer{}

type noopTracer struct{}

func (noopTracer) OnSessionStart(types.SessionID, types.EndpointID, types.EndpointID, time.Duration) {}

func (noopTracer) OnSessionEnd(Record) {}
