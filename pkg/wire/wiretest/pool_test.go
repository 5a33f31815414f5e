package wiretest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

func TestPoolStartsAtOne(t *testing.T) {
	var p Pool
	assert.Equal(t, wire.NewAnon(1), p.NextAnon())
	assert.Equal(t, wire.NewBot(2), p.NextBot())
	assert.Equal(t, wire.NewAuthSpecific(wire.UserIDFromUint64Pair(3, 3), 0), p.NextAuth())
}

func TestPoolNextIsAuth(t *testing.T) {
	var p Pool
	target := p.Next()
	assert.True(t, target.IsAuth())
	assert.False(t, target.ID().IsAnon())
}

func TestPoolTargetsPairwiseDistinct(t *testing.T) {
	var p Pool
	var targets []wire.Target
	for i := 0; i < 30; i++ {
		switch i % 4 {
		case 0:
			targets = append(targets, p.NextAnon())
		case 1:
			targets = append(targets, p.NextAuth())
		case 2:
			targets = append(targets, p.NextBot())
		default:
			targets = append(targets, p.Next())
		}
	}

	for i := range targets {
		for j := range targets {
			if i == j {
				continue
			}
			require.False(t, targets[i].WeakEq(targets[j]), "%s ~ %s", targets[i], targets[j])
		}
	}
}

func TestFixtures(t *testing.T) {
	assert.Equal(t, wire.CorrelationIDFromUint64(3), CorrID(3))
	s := Stamped("ev")
	assert.Equal(t, Stamp0, s.At)
	assert.Equal(t, 2024, s.Time().UTC().Year())
}
