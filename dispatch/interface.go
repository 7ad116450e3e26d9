package dispatch

import (
	"github.com/entanglenet/go-repeater/common/types"
	"github.com/entanglenet/go-repeater/entangle"
	"github.com/entanglenet/go-repeater/timesync"
)

//go:generate mockgen -typed -package=dispatch -destination=./mocks.go -source=./interface.go

// launcher starts sessions on the endpoints of a network.
type launcher interface {
	// Launch binds both endpoints to the session id and starts it on clock.
	// It returns the completion signals of the initiator and the responder.
	Launch(
		clock *timesync.Clock,
		id types.SessionID,
		initiator, responder types.EndpointID,
	) (*timesync.Signal[entangle.Result], *timesync.Signal[entangle.Result], error)
	// Release unbinds both endpoints once the session is over.
	Release(id types.SessionID, initiator, responder types.EndpointID)
}
