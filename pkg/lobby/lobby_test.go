package lobby

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
	"github.com/ZentaChain/zentalk-wire/pkg/wire/wiretest"
)

func TestHandleRejectedByValidator(t *testing.T) {
	corrid := wiretest.CorrID(1)
	l := New(&Config{
		MaxTextLen: DefaultMaxTextLen,
		MaxNickLen: DefaultMaxNickLen,
		Validate: func(wire.Req[Action]) error {
			return errors.New("blocked")
		},
	}, nil)

	res, failure := l.Handle(context.Background(), wire.NewReq(wire.NewAnon(7), Action(Ping{}), corrid))

	assert.Nil(t, res)
	require.NotNil(t, failure)
	assert.Equal(t, wire.Error[Failure]{
		To:     wire.NewAnon(7),
		Err:    Network{Err: wire.ErrInvalidMessage},
		CorrID: corrid,
	}, *failure)
}

func TestHandlePing(t *testing.T) {
	l := New(nil, nil)
	req := wire.NewReq(wire.NewAnon(3), Action(Ping{}), wiretest.CorrID(2))

	res, failure := l.Handle(context.Background(), req)
	require.Nil(t, failure)
	require.Len(t, res, 1)
	assert.True(t, res[0].Targets.Equal(wire.Few(wire.NewAnon(3))))
	assert.Equal(t, Event(Pong{}), res[0].Event)
}

func TestHandleValidation(t *testing.T) {
	var pool wiretest.Pool
	anon := pool.NextAnon()
	user := pool.NextAuth()
	invalid := Failure(Network{Err: wire.ErrInvalidMessage})

	tests := []struct {
		name   string
		from   wire.Target
		action Action
		want   Failure
	}{
		{"nil action", user, nil, invalid},
		{"anonymous say", anon, Say{Room: 1, Text: "hi"}, Session{Err: wire.Unauthenticated}},
		{"anonymous join", anon, NewJoin(1, "nick"), Session{Err: wire.Unauthenticated}},
		{"empty text", user, Say{Room: 1}, invalid},
		{"long text", user, Say{Room: 1, Text: strings.Repeat("x", DefaultMaxTextLen+1)}, invalid},
		{"empty nick", user, NewJoin(1, ""), invalid},
		{"long nick", user, NewJoin(1, strings.Repeat("é", DefaultMaxNickLen+1)), invalid},
		{"say outside room", user, Say{Room: 1, Text: "hi"}, NotInRoom{Room: 1}},
		{"leave outside room", user, Leave{Room: 4}, NotInRoom{Room: 4}},
		{"anonymous leave", anon, Leave{Room: 4}, NotInRoom{Room: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(nil, nil)
			corrid := wiretest.CorrID(9)

			res, failure := l.Handle(context.Background(), wire.NewReq(tt.from, tt.action, corrid))
			assert.Nil(t, res)
			require.NotNil(t, failure)
			assert.Equal(t, tt.want, failure.Err)
			assert.Equal(t, tt.from, failure.To)
			assert.Equal(t, corrid, failure.CorrID)
		})
	}
}

func TestHandleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, failure := New(nil, nil).Handle(ctx, wire.NewReq(wire.NewAnon(1), Action(Ping{}), wiretest.CorrID(1)))
	require.NotNil(t, failure)
	assert.Equal(t, Failure(Network{Err: wire.SocketFailure(context.Canceled.Error())}), failure.Err)
}

func TestRoomConversation(t *testing.T) {
	ctx := context.Background()
	var pool wiretest.Pool
	alice, bob := pool.NextAuth(), pool.NextAuth()
	l := New(nil, nil)

	handle := func(from wire.Target, a Action) []wire.Res[Event] {
		t.Helper()
		res, failure := l.Handle(ctx, wire.NewReq(from, a, wiretest.CorrID(1)))
		require.Nil(t, failure)
		return res
	}

	// alice joins an empty room and only her own sessions hear it
	res := handle(alice, NewJoin(1, "alice"))
	require.Len(t, res, 1)
	assert.True(t, res[0].Targets.Equal(wire.Few(alice.ForAll())))
	assert.Equal(t, Event(NewJoined(1, alice, "alice")), res[0].Event)

	// bob joins; alice is told separately
	res = handle(bob, NewJoin(1, "bob"))
	require.Len(t, res, 2)
	assert.True(t, res[0].Targets.Equal(wire.Few(bob.ForAll())))
	assert.True(t, res[1].Targets.Equal(wire.Few(alice)))
	assert.Equal(t, []wire.Target{alice, bob}, l.Members(1))

	// rejoining renames without duplicating
	handle(alice, NewJoin(1, "ally"))
	nick, ok := l.Nick(1, alice)
	assert.True(t, ok)
	assert.Equal(t, "ally", nick)
	assert.Len(t, l.Members(1), 2)

	res = handle(bob, Say{Room: 1, Text: "hello"})
	require.Len(t, res, 1)
	assert.True(t, res[0].Targets.Equal(wire.Few(alice, bob)))
	assert.Equal(t, Event(Said{Room: 1, From: bob, Text: "hello"}), res[0].Event)

	res = handle(bob, Leave{Room: 1})
	require.Len(t, res, 1)
	assert.True(t, res[0].Targets.Equal(wire.Few(alice, bob)), "the leaver hears it too")
	assert.Equal(t, Event(Left{Room: 1, Who: bob}), res[0].Event)
	assert.Equal(t, []wire.Target{alice}, l.Members(1))

	_, ok = l.Nick(1, bob)
	assert.False(t, ok)
}

func TestDisconnected(t *testing.T) {
	ctx := context.Background()
	var pool wiretest.Pool
	alice, bob := pool.NextAuth(), pool.NextAuth()
	l := New(nil, nil)

	for _, from := range []wire.Target{alice, bob} {
		for room := uint32(1); room <= 2; room++ {
			_, failure := l.Handle(ctx, wire.NewReq(from, Action(NewJoin(room, "n")), wiretest.CorrID(1)))
			require.Nil(t, failure)
		}
	}

	session, _ := bob.Session()
	res := l.Disconnected(wire.Disconnected[Lobby]{UserID: bob.ID(), SessionID: session})
	require.Len(t, res, 2)
	for _, r := range res {
		assert.True(t, r.Targets.Equal(wire.Few(alice)))
		left, ok := r.Event.(Left)
		require.True(t, ok)
		assert.Equal(t, bob, left.Who)
	}
	assert.Equal(t, []wire.Target{alice}, l.Members(1))
	assert.Equal(t, []wire.Target{alice}, l.Members(2))

	// last member leaving empties the room silently
	session, _ = alice.Session()
	assert.Empty(t, l.Disconnected(wire.Disconnected[Lobby]{UserID: alice.ID(), SessionID: session}))
	assert.Empty(t, l.Members(1))
}

func TestSessionsOfOneUserAreSeparateMembers(t *testing.T) {
	ctx := context.Background()
	user := wire.UserIDFromUint64Pair(5, 5)
	phone, laptop := wire.NewDeduced(user, 1), wire.NewDeduced(user, 2)
	l := New(nil, nil)

	_, failure := l.Handle(ctx, wire.NewReq(phone, Action(NewJoin(1, "me")), wiretest.CorrID(1)))
	require.Nil(t, failure)

	_, failure = l.Handle(ctx, wire.NewReq(laptop, Action(Say{Room: 1, Text: "hi"}), wiretest.CorrID(2)))
	require.NotNil(t, failure)
	assert.Equal(t, Failure(NotInRoom{Room: 1}), failure.Err)

	res, failure := l.Handle(ctx, wire.NewReq(laptop, Action(NewJoin(1, "me")), wiretest.CorrID(3)))
	require.Nil(t, failure)
	require.Len(t, res, 1, "the phone is reached through ForAll")
	assert.Equal(t, []wire.Target{phone, laptop}, l.Members(1))
}

func TestConnectedFirstSession(t *testing.T) {
	l := New(nil, nil)
	user := wire.UserIDFromUint64Pair(5, 5)

	first, ok := l.Connected(wire.Connected[Lobby]{UserID: user, SessionID: 1})
	require.True(t, ok)
	assert.Equal(t, wire.FirstConnected[Lobby]{UserID: user, SessionID: 1}, first)

	_, ok = l.Connected(wire.Connected[Lobby]{UserID: user, SessionID: 2})
	assert.False(t, ok, "second session of the same user")
	assert.Equal(t, 2, l.Online(user))

	l.Disconnected(wire.Disconnected[Lobby]{UserID: user, SessionID: 1})
	l.Disconnected(wire.Disconnected[Lobby]{UserID: user, SessionID: 2})
	assert.Zero(t, l.Online(user))

	_, ok = l.Connected(wire.Connected[Lobby]{UserID: user, SessionID: 3})
	assert.True(t, ok, "first again after every session closed")

	// anonymous sessions have no user to count
	_, ok = l.Connected(wire.Connected[Lobby]{UserID: wire.AnonUserID, SessionID: 4})
	assert.False(t, ok)
	assert.Zero(t, l.Online(wire.AnonUserID))
}

func TestNilActionDoesNotDecode(t *testing.T) {
	data := wire.MarshalReq(wire.Req[Action]{From: wire.NewAnon(1)}, ActionCodec)

	_, err := wire.UnmarshalReq(data, ActionCodec)
	var de *wire.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Action", de.Type)
	assert.Equal(t, "4", de.Got)

	_, err = ActionCodec.EncodeText(nil)
	assert.Error(t, err)
}
