package wire

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = UserIDFromUint64Pair(1, 1)
	bob   = UserIDFromUint64Pair(2, 2)
)

func TestNewDeduced(t *testing.T) {
	tests := []struct {
		name    string
		user    UserID
		session SessionID
		want    Target
	}{
		{"anonymous sentinel", AnonUserID, 7, NewAnon(7)},
		{"anonymous slot zero", AnonUserID, 0, NewAnon(0)},
		{"authenticated user", alice, 3, NewAuth(AuthSpecific(alice, 3))},
		{"system user", SystemUserID, 1, NewAuth(AuthSpecific(SystemUserID, 1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewDeduced(tt.user, tt.session))
		})
	}
}

func TestTargetZeroValueIsAnonZero(t *testing.T) {
	var zero Target
	assert.Equal(t, NewAnon(0), zero)
	assert.True(t, zero.IsAnon())
}

func TestTargetAccessors(t *testing.T) {
	anon := NewAnon(4)
	assert.Equal(t, TargetAnon, anon.Kind())
	assert.Equal(t, AnonUserID, anon.ID())
	s, ok := anon.Session()
	assert.True(t, ok)
	assert.Equal(t, SessionID(4), s)
	_, ok = anon.Auth()
	assert.False(t, ok)

	specific := NewAuthSpecific(alice, 9)
	assert.True(t, specific.IsAuth())
	assert.Equal(t, alice, specific.ID())
	s, ok = specific.Session()
	assert.True(t, ok)
	assert.Equal(t, SessionID(9), s)
	at, ok := specific.Auth()
	require.True(t, ok)
	assert.True(t, at.IsSpecific())

	all := NewAuthAll(alice)
	_, ok = all.Session()
	assert.False(t, ok, "All has no single session")

	bot := NewBot(42)
	assert.True(t, bot.IsBot())
	assert.Equal(t, AnonUserID, bot.ID())
	id, ok := bot.Bot()
	assert.True(t, ok)
	assert.Equal(t, BotID(42), id)
	_, ok = bot.Session()
	assert.False(t, ok)
}

func TestWeakEq(t *testing.T) {
	tests := []struct {
		name string
		a, b Target
		want bool
	}{
		{"same anon", NewAnon(1), NewAnon(1), true},
		{"different anon sessions", NewAnon(1), NewAnon(2), false},
		{"auth ignores session", NewAuthSpecific(alice, 1), NewAuthSpecific(alice, 2), true},
		{"auth all vs specific", NewAuthAll(alice), NewAuthSpecific(alice, 5), true},
		{"different users", NewAuthSpecific(alice, 1), NewAuthSpecific(bob, 1), false},
		{"same bot", NewBot(3), NewBot(3), true},
		{"different bots", NewBot(3), NewBot(4), false},
		{"anon vs auth", NewAnon(0), NewAuthSpecific(alice, 0), false},
		{"anon vs bot", NewAnon(3), NewBot(3), false},
		{"auth vs bot", NewAuthAll(alice), NewBot(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.WeakEq(tt.b))
			assert.Equal(t, tt.want, tt.b.WeakEq(tt.a), "WeakEq must be symmetric")
			assert.True(t, tt.a.WeakEq(tt.a), "WeakEq must be reflexive")
		})
	}
}

func TestForAll(t *testing.T) {
	assert.Equal(t, NewAuthAll(alice), NewAuthSpecific(alice, 3).ForAll())
	assert.Equal(t, NewAuthAll(alice), NewAuthAll(alice).ForAll())

	// no sibling sessions to widen to
	assert.Equal(t, NewAnon(7), NewAnon(7).ForAll())
	assert.Equal(t, NewBot(5), NewBot(5).ForAll())
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "anon/7", NewAnon(7).String())
	assert.Equal(t, "bot/9", NewBot(9).String())
	assert.Equal(t, "auth/"+alice.String(), NewAuthAll(alice).String())
	assert.Equal(t, "auth/"+alice.String()+"/3", NewAuthSpecific(alice, 3).String())
}

func TestCoercions(t *testing.T) {
	at := AuthSpecific(alice, 1)

	assert.Equal(t, NewAuth(at), at.AsTarget())
	assert.True(t, Few(NewAuth(at)).Equal(at.AsTargets()))

	target := NewAnon(3)
	assert.Equal(t, target, target.AsTarget())
	assert.True(t, Few(target).Equal(target.AsTargets()))

	all := AllTargets()
	assert.True(t, all.Equal(all.AsTargets()))
}

func TestTargetsDistinct(t *testing.T) {
	empty := Few()
	all := AllTargets()
	one := Few(NewAnon(1))

	assert.False(t, empty.Equal(all))
	assert.False(t, empty.Equal(one))
	assert.False(t, all.Equal(one))

	assert.True(t, all.IsAll())
	assert.False(t, empty.IsAll())
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Contains(NewAnon(1)), "Few() reaches nobody")
}

func TestTargetsKeepsOrderAndDuplicates(t *testing.T) {
	ts := Few(NewAnon(2), NewAnon(1), NewAnon(2))
	assert.Equal(t, []Target{NewAnon(2), NewAnon(1), NewAnon(2)}, ts.List())
	assert.False(t, ts.Equal(Few(NewAnon(1), NewAnon(2), NewAnon(2))))
}

func TestTargetsCopiesInput(t *testing.T) {
	in := []Target{NewAnon(1)}
	ts := Few(in...)
	in[0] = NewAnon(99)
	assert.Equal(t, NewAnon(1), ts.List()[0])

	out := ts.List()
	out[0] = NewAnon(98)
	assert.Equal(t, NewAnon(1), ts.List()[0])
}

func TestTargetsEmptyIsDeepEqual(t *testing.T) {
	assert.True(t, reflect.DeepEqual(Few(), Few([]Target{}...)))
	assert.True(t, reflect.DeepEqual(Few(), FewAuth()))
}

func TestTargetsContains(t *testing.T) {
	ts := FewAuth(AuthSpecific(alice, 1))

	assert.True(t, ts.Contains(NewAuthSpecific(alice, 2)), "contains compares by principal")
	assert.False(t, ts.Contains(NewAuthSpecific(bob, 1)))
	assert.True(t, AllTargets().Contains(NewBot(1)))
}
