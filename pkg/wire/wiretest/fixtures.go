package wiretest

import (
	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

// Stamp0 is a fixed capture time for stamped fixtures (2024-01-01T00:00:00Z)
const Stamp0 int64 = 1704067200000

// CorrID returns a readable correlation id for fixtures
func CorrID(n uint64) wire.CorrelationID {
	return wire.CorrelationIDFromUint64(n)
}

// Stamped wraps e at Stamp0
func Stamped[E any](e E) wire.Stamped[E] {
	return wire.StampAt(Stamp0, e)
}
