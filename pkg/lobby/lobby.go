// Package lobby is a small chat lobby built on wire envelopes. Sessions join
// numbered rooms and talk in them; every reply is a wire.Res or wire.Error
// addressed with wire targets.
package lobby

import (
	"context"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

const (
	DefaultMaxTextLen = 2000
	DefaultMaxNickLen = 32
)

// Config holds lobby limits
type Config struct {
	MaxTextLen int // in runes
	MaxNickLen int // in runes

	// Validate runs after the built-in checks. A non-nil error rejects the
	// request with wire.ErrInvalidMessage.
	Validate func(req wire.Req[Action]) error
}

// DefaultConfig returns the default limits
func DefaultConfig() *Config {
	return &Config{
		MaxTextLen: DefaultMaxTextLen,
		MaxNickLen: DefaultMaxNickLen,
	}
}

type member struct {
	target wire.Target
	nick   string
}

// Lobby keeps room membership. Safe for concurrent use.
type Lobby struct {
	mu     sync.Mutex
	rooms  map[uint32][]member
	online map[wire.UserID]int // open sessions per authenticated user
	config *Config
	logger *slog.Logger
}

// New creates an empty lobby. A nil config uses DefaultConfig and a nil
// logger uses slog.Default.
func New(config *Config, logger *slog.Logger) *Lobby {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lobby{
		rooms:  make(map[uint32][]member),
		online: make(map[wire.UserID]int),
		config: config,
		logger: logger.With("component", "lobby"),
	}
}

// Handle applies one request. It returns either the responses to deliver or
// an error reply for the sender, never both.
func (l *Lobby) Handle(ctx context.Context, req wire.Req[Action]) ([]wire.Res[Event], *wire.Error[Failure]) {
	if err := ctx.Err(); err != nil {
		return l.fail(req, Network{Err: wire.SocketFailure(err.Error())})
	}
	if failure := l.validate(req); failure != nil {
		return l.fail(req, failure)
	}

	l.logger.Debug("handle", "from", req.From, "corrid", req.CorrID, "action", req.Action)

	switch a := req.Action.(type) {
	case Ping:
		return []wire.Res[Event]{wire.ResFor(req, Event(Pong{}))}, nil
	case Say:
		return l.say(req, a)
	case Join:
		return l.join(req, a)
	case Leave:
		return l.leave(req, a)
	}
	return l.fail(req, Network{Err: wire.ErrInvalidMessage})
}

func (l *Lobby) validate(req wire.Req[Action]) Failure {
	invalid := Network{Err: wire.ErrInvalidMessage}

	switch a := req.Action.(type) {
	case nil:
		return invalid
	case Say:
		if !req.From.IsAuth() {
			return Session{Err: wire.Unauthenticated}
		}
		if a.Text == "" || utf8.RuneCountInString(a.Text) > l.config.MaxTextLen {
			return invalid
		}
	case Join:
		if !req.From.IsAuth() {
			return Session{Err: wire.Unauthenticated}
		}
		if a.F1 == "" || utf8.RuneCountInString(a.F1) > l.config.MaxNickLen {
			return invalid
		}
	}

	if l.config.Validate != nil {
		if err := l.config.Validate(req); err != nil {
			l.logger.Info("request rejected", "from", req.From, "corrid", req.CorrID, "error", err)
			return invalid
		}
	}
	return nil
}

func (l *Lobby) fail(req wire.Req[Action], failure Failure) ([]wire.Res[Event], *wire.Error[Failure]) {
	l.logger.Warn("request failed", "from", req.From, "corrid", req.CorrID, "failure", failure)
	reply := wire.ErrorFor(req, failure)
	return nil, &reply
}

func (l *Lobby) say(req wire.Req[Action], a Say) ([]wire.Res[Event], *wire.Error[Failure]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if indexOf(l.rooms[a.Room], req.From) < 0 {
		return l.fail(req, NotInRoom{Room: a.Room})
	}
	said := Said{Room: a.Room, From: req.From, Text: a.Text}
	return []wire.Res[Event]{wire.NewRes(audience(l.rooms[a.Room]), Event(said))}, nil
}

func (l *Lobby) join(req wire.Req[Action], a Join) ([]wire.Res[Event], *wire.Error[Failure]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room := a.F0
	members := l.rooms[room]
	if i := indexOf(members, req.From); i >= 0 {
		members[i].nick = a.F1
	} else {
		members = append(members, member{target: req.From, nick: a.F1})
		l.rooms[room] = members
	}

	joined := NewJoined(room, req.From, a.F1)
	out := []wire.Res[Event]{wire.NewRes(req.From.ForAll(), Event(joined))}

	// the joining user is already covered by ForAll
	var others []wire.Target
	for _, m := range members {
		if !m.target.WeakEq(req.From) {
			others = append(others, m.target)
		}
	}
	if len(others) > 0 {
		out = append(out, wire.NewRes(wire.Few(others...), Event(joined)))
	}

	l.logger.Info("joined", "room", room, "target", req.From, "members", len(members))
	return out, nil
}

func (l *Lobby) leave(req wire.Req[Action], a Leave) ([]wire.Res[Event], *wire.Error[Failure]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	members := l.rooms[a.Room]
	i := indexOf(members, req.From)
	if i < 0 {
		return l.fail(req, NotInRoom{Room: a.Room})
	}

	left := Left{Room: a.Room, Who: req.From}
	to := audience(members)
	l.remove(a.Room, i)

	l.logger.Info("left", "room", a.Room, "target", req.From)
	return []wire.Res[Event]{wire.NewRes(to, Event(left))}, nil
}

// Connected counts a new session. For the first open session of an
// authenticated user it returns the matching FirstConnected event.
func (l *Lobby) Connected(ev wire.Connected[Lobby]) (wire.FirstConnected[Lobby], bool) {
	if !ev.Target().IsAuth() {
		return wire.FirstConnected[Lobby]{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.online[ev.UserID]++
	if l.online[ev.UserID] > 1 {
		return wire.FirstConnected[Lobby]{}, false
	}
	return wire.FirstConnected[Lobby]{UserID: ev.UserID, SessionID: ev.SessionID}, true
}

// Online returns the number of open sessions of an authenticated user
func (l *Lobby) Online(user wire.UserID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.online[user]
}

// Disconnected removes a closed session from every room and returns the Left
// events for the remaining members
func (l *Lobby) Disconnected(ev wire.Disconnected[Lobby]) []wire.Res[Event] {
	target := ev.Target()

	l.mu.Lock()
	defer l.mu.Unlock()

	if target.IsAuth() && l.online[ev.UserID] > 0 {
		l.online[ev.UserID]--
		if l.online[ev.UserID] == 0 {
			delete(l.online, ev.UserID)
		}
	}

	var out []wire.Res[Event]
	for room, members := range l.rooms {
		i := indexOf(members, target)
		if i < 0 {
			continue
		}
		l.remove(room, i)
		if rest := l.rooms[room]; len(rest) > 0 {
			out = append(out, wire.NewRes(audience(rest), Event(Left{Room: room, Who: target})))
		}
	}
	return out
}

// Members returns the targets in room, in join order
func (l *Lobby) Members(room uint32) []wire.Target {
	l.mu.Lock()
	defer l.mu.Unlock()

	return audience(l.rooms[room]).List()
}

// Nick returns the nickname target uses in room
func (l *Lobby) Nick(room uint32, target wire.Target) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	members := l.rooms[room]
	if i := indexOf(members, target); i >= 0 {
		return members[i].nick, true
	}
	return "", false
}

// remove drops members[i] of room. Callers hold mu.
func (l *Lobby) remove(room uint32, i int) {
	members := l.rooms[room]
	members = append(members[:i:i], members[i+1:]...)
	if len(members) == 0 {
		delete(l.rooms, room)
		return
	}
	l.rooms[room] = members
}

// indexOf finds target by exact session, so two sessions of one user are
// separate members
func indexOf(members []member, target wire.Target) int {
	for i, m := range members {
		if m.target == target {
			return i
		}
	}
	return -1
}

func audience(members []member) wire.Targets {
	targets := make([]wire.Target, len(members))
	for i, m := range members {
		targets[i] = m.target
	}
	return wire.Few(targets...)
}
