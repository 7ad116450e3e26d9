package entangle

import (
	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/timesync"
)

// generation obtains one shared resource into slot. It runs as its own task
// and raises done with the result.
type generation struct {
	side *side
	slot types.Slot
	done *timesync.Signal[Generation]
}

func (g *generation) run(t *timesync.Task) error {
	sd := g.side
	s := sd.session
	if sd.role == Initiator {
		s.source.Start()
		defer s.source.Stop()
	}
	start, err := negotiateStart(t, sd)
	if err != nil {
		return err
	}
	s.tracer.OnGenerationStart(sd.role, g.slot, start)
	if err := t.SleepUntil(start); err != nil {
		return err
	}

	out := Generation{Slot: g.slot, Start: start, Index: NoIndex}
	for round := 1; ; round++ {
		roundStart := t.Now()
		s.tracer.OnRoundStart(sd.role, g.slot, round, roundStart)
		local, err := runRound(t, sd, g.slot, roundStart)
		if err != nil {
			return err
		}
		outcome, err := reconcile(t, sd, local)
		if err != nil {
			return err
		}
		s.tracer.OnRoundEnd(sd.role, g.slot, round, local, outcome)
		out.Rounds = round
		index, matched := outcome.Matched()
		if sd.role == Initiator {
			switch {
			case matched:
				roundsMatched.Inc()
			case local == NoIndex:
				roundsEmpty.Inc()
			default:
				roundsMismatched.Inc()
			}
		}
		if matched {
			out.Index = index
			break
		}
		sd.self.Memory().Discard(g.slot)
		if s.cfg.MaxRounds > 0 && round >= s.cfg.MaxRounds {
			out.Exhausted = true
			break
		}
	}
	out.End = t.Now()
	if sd.role == Initiator && !out.Exhausted {
		generationLatency.WithLabelValues(g.slot.String()).Observe((out.End - out.Start).Seconds())
		generationRounds.Observe(float64(out.Rounds))
	}
	sd.logger.Debug("generation finished", zap.Inline(&out))
	s.tracer.OnGenerationEnd(sd.role, out)
	g.done.Raise(out)
	return nil
}
