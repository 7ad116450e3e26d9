package entangle

import (
	"time"

	"github.com/entanglenet/go-repeater/common/types"
)

// Tracer observes the progress of both sides of a session. Calls are made
// from the task of the side, one at a time.
type Tracer interface {
	OnGenerationStart(Role, types.Slot, time.Duration)
	OnRoundStart(role Role, slot types.Slot, round int, at time.Duration)
	OnRoundEnd(role Role, slot types.Slot, round, local int, outcome Outcome)
	OnGenerationEnd(Role, Generation)
	OnConsistency(role Role, local, peer uint8)
	OnMessageSent(Role, Message)
	OnMessageReceived(Role, Message)
	OnStop(Result)
}

var _ Tracer = noopTracer{}

type noopTracer struct{}

func (noopTracer) OnGenerationStart(Role, types.Slot, time.Duration) {}

func (noopTracer) OnRoundStart(Role, types.Slot, int, time.Duration) {}

func (noopTracer) OnRoundEnd(Role, types.Slot, int, int, Outcome) {}

func (noopTracer) OnGenerationEnd(Role, Generation) {}

func (noopTracer) OnConsistency(Role, uint8, uint8) {}

func (noopTracer) OnMessageSent(Role, Message) {}

func (noopTracer) OnMessageReceived(Role, Message) {}

func (noopTracer) OnStop(Result) {}
