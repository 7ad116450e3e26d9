package entangle

import (
	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/timesync"
)

// handoff teleports the state from the initiator to the responder over the
// resource in the first slot.
func handoff(t *timesync.Task, sd *side, res *Result) error {
	mem := sd.self.Memory()
	if sd.role == Initiator {
		h, err := mem.Pop(types.SlotFirst)
		if err != nil {
			return err
		}
		m0, m1, err := epr.Teleport(h, sd.session.rng)
		if err != nil {
			return err
		}
		res.Correction = [2]uint8{m0, m1}
		return sd.send(CorrectionMessage(m0, m1))
	}

	msg, err := sd.expect(t, KindCorrection)
	if err != nil {
		return err
	}
	h, err := mem.Pop(types.SlotFirst)
	if err != nil {
		return err
	}
	if msg.M1 == 1 {
		h.Apply(epr.X)
	}
	if msg.M0 == 1 {
		h.Apply(epr.Z)
	}
	res.Correction = [2]uint8{msg.M0, msg.M1}
	res.Applied = h.Applied()
	res.Fidelity = h.Fidelity()
	fidelity.Observe(res.Fidelity)
	sd.logger.Debug("state received", zap.Inline(h), zap.Float64("fidelity", res.Fidelity))
	return nil
}
