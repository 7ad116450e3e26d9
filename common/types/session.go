package types

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// SessionID identifies one dispatched session. Ids are derived from the run seed
// and the dispatch sequence number, so identical runs produce identical ids.
type SessionID uuid.UUID

// EmptySessionID is the zero id.
var EmptySessionID SessionID

// RunID derives the namespace of all session ids of the run seeded with seed.
func RunID(seed int64) uuid.UUID {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	return uuid.NewSHA1(uuid.NameSpaceOID, buf[:])
}

// NewSessionID returns the id of the seq-th session of run.
func NewSessionID(run uuid.UUID, seq uint64, initiator, responder EndpointID) SessionID {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	binary.BigEndian.PutUint32(buf[8:], initiator.Uint32())
	binary.BigEndian.PutUint32(buf[12:], responder.Uint32())
	return SessionID(uuid.NewSHA1(run, buf[:]))
}

// String implements fmt.Stringer.
func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// ShortString returns the first 8 characters of the id.
func (id SessionID) ShortString() string {
	return id.String()[:8]
}
