package entangle

import (
	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/epr"
	"github.com/entanglenet/go-repeater/timesync"
)

// checkConsistency measures the parity of both resources, consuming the
// second one, and exchanges the result with the peer.
func checkConsistency(t *timesync.Task, sd *side) (local, peer uint8, err error) {
	mem := sd.self.Memory()
	first, err := mem.Peek(types.SlotFirst)
	if err != nil {
		return 0, 0, err
	}
	second, err := mem.Pop(types.SlotSecond)
	if err != nil {
		return 0, 0, err
	}
	local, err = epr.Parity(first, second)
	if err != nil {
		return 0, 0, err
	}
	if err := sd.send(ConsistencyMessage(local)); err != nil {
		return 0, 0, err
	}
	msg, err := sd.expect(t, KindConsistency)
	if err != nil {
		return 0, 0, err
	}
	sd.session.tracer.OnConsistency(sd.role, local, msg.Bit)
	return local, msg.Bit, nil
}
