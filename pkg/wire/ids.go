package wire

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/google/uuid"
)

// UserID identifies a user (16 bytes)
type UserID uuid.UUID

// SessionID identifies a connection within its owning user or anonymous slot
type SessionID uint32

// BotID identifies an automated principal. It never shares a space with UserID.
type BotID uint64

// CorrelationID pairs a response or error with the request that caused it (16 bytes)
type CorrelationID uuid.UUID

var (
	// AnonUserID is the user of every unauthenticated connection (nil UUID)
	AnonUserID = UserID(uuid.Nil)

	// SystemUserID is the internal, maximal-trust origin (max UUID).
	// It is disjoint from AnonUserID.
	SystemUserID = UserID(uuid.Max)
)

// NewUserID generates a random user ID
func NewUserID() UserID {
	return UserID(uuid.New())
}

// UserIDFromUint64Pair builds a user ID from its high and low halves
func UserIDFromUint64Pair(high, low uint64) UserID {
	var id UserID
	binary.BigEndian.PutUint64(id[0:8], high)
	binary.BigEndian.PutUint64(id[8:16], low)
	return id
}

// ParseUserID parses the hyphenated form of a user ID
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// IsAnon reports whether id is the anonymous sentinel
func (id UserID) IsAnon() bool {
	return id == AnonUserID
}

// IsSystem reports whether id is the system sentinel
func (id UserID) IsSystem() bool {
	return id == SystemUserID
}

// String returns the hyphenated form
func (id UserID) String() string {
	return uuid.UUID(id).String()
}

func (id UserID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *UserID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

// NewCorrelationID generates a random correlation ID
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.New())
}

// CorrelationIDFromUint64 builds a counter-style correlation ID
func CorrelationIDFromUint64(n uint64) CorrelationID {
	var id CorrelationID
	binary.BigEndian.PutUint64(id[8:16], n)
	return id
}

// ParseCorrelationID parses the hyphenated form of a correlation ID
func ParseCorrelationID(s string) (CorrelationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CorrelationID{}, err
	}
	return CorrelationID(u), nil
}

// IsZero reports whether id was never assigned
func (id CorrelationID) IsZero() bool {
	return id == CorrelationID{}
}

// String returns the hyphenated form
func (id CorrelationID) String() string {
	return uuid.UUID(id).String()
}

func (id CorrelationID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *CorrelationID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

// CorrelationIssuer hands out monotonically increasing correlation IDs.
// Safe for concurrent use.
type CorrelationIssuer struct {
	next atomic.Uint64
}

// Next returns a correlation ID never returned before by this issuer.
// The first ID is 1, so the zero ID stays unassigned.
func (i *CorrelationIssuer) Next() CorrelationID {
	return CorrelationIDFromUint64(i.next.Add(1))
}
