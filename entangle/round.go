package entangle

import (
	"fmt"
	"time"

	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/timesync"
)

// Outcome of reconciling the indices latched by both sides in one round.
type Outcome struct {
	matched bool
	index   int
}

// NoMatch is the outcome of a round that must be retried.
var NoMatch = Outcome{index: NoIndex}

// MatchedAt returns the outcome of a round where both sides latched index.
func MatchedAt(index int) Outcome {
	return Outcome{matched: true, index: index}
}

// Reconcile compares the local index with the index reported by the peer.
func Reconcile(local, peer int) Outcome {
	if local == peer && local != NoIndex {
		return MatchedAt(local)
	}
	return NoMatch
}

// Matched returns the shared index if the round matched.
func (o Outcome) Matched() (int, bool) {
	return o.index, o.matched
}

func (o Outcome) String() string {
	if !o.matched {
		return "no match"
	}
	return fmt.Sprintf("matched(%d)", o.index)
}

// roundDeadline is the end of the round starting at start.
func (sd *side) roundDeadline(start time.Duration) time.Duration {
	slots := time.Duration(sd.session.params.Attempts())
	return start + slots*sd.session.params.TClock + sd.session.cfg.RoundMargin
}

// runRound listens for arrivals until the end of the round and latches the
// first one into slot. It returns the attempt index of the latched arrival
// or NoIndex.
func runRound(t *timesync.Task, sd *side, slot types.Slot, start time.Duration) (int, error) {
	var (
		params   = &sd.session.params
		slots    = params.Attempts()
		deadline = timesync.Deadline(sd.roundDeadline(start))
		latched  = NoIndex
	)
	for {
		arrival := sd.arrivals.Case()
		if err := t.Select(arrival, deadline); err != nil {
			return NoIndex, err
		}
		if arrival.Fired() && latched == NoIndex {
			index := int((t.Now() - start) / params.TClock)
			if index < slots {
				if err := sd.self.Memory().Put(slot, arrival.Value()); err != nil {
					return NoIndex, err
				}
				latched = index
			}
		}
		if deadline.Fired() {
			return latched, nil
		}
	}
}

// reconcile exchanges the latched indices with the peer.
func reconcile(t *timesync.Task, sd *side, local int) (Outcome, error) {
	if err := sd.send(EndMessage(local)); err != nil {
		return NoMatch, err
	}
	msg, err := sd.expect(t, KindEnd)
	if err != nil {
		return NoMatch, err
	}
	return Reconcile(local, msg.Index), nil
}
