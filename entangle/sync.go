package entangle

import (
	"time"

	"go.uber.org/zap"

	"github.com/entanglenet/go-repeater/link"
	"github.com/entanglenet/go-repeater/log"
	"github.com/entanglenet/go-repeater/timesync"
)

// StartTime returns the first clock boundary strictly after now plus the
// link delay, so the start message reaches the peer before the first round.
func StartTime(now time.Duration, params *link.Params) time.Duration {
	s := now + params.Delay()
	return s + (params.TClock - s%params.TClock)
}

// negotiateStart returns the start time of the first round of a generation.
// The initiator picks it and the responder waits for it.
func negotiateStart(t *timesync.Task, sd *side) (time.Duration, error) {
	if sd.role == Responder {
		msg, err := sd.expect(t, KindStart)
		if err != nil {
			return 0, err
		}
		return msg.Time, nil
	}
	if sd.session.cfg.SourceSync {
		if _, err := sd.arrivals.Recv(t); err != nil {
			return 0, err
		}
		sd.logger.Debug("source synchronized", log.ZVirtual("at", t.Now()))
	}
	start := StartTime(t.Now(), &sd.session.params)
	if err := sd.send(StartMessage(start)); err != nil {
		return 0, err
	}
	sd.logger.Debug("start time chosen", log.ZVirtual("at", t.Now()), zap.Int64("start", int64(start)))
	return start, nil
}
