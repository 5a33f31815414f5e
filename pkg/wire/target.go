package wire

import "fmt"

// AuthKind is the wire discriminant of an AuthTarget
type AuthKind uint8

const (
	AuthAllKind      AuthKind = 0 // every live session of the user
	AuthSpecificKind AuthKind = 1 // exactly one session of the user
)

// TargetKind is the wire discriminant of a Target
type TargetKind uint8

const (
	TargetAnon TargetKind = 0
	TargetAuth TargetKind = 1
	TargetBot  TargetKind = 2
)

func (k TargetKind) String() string {
	switch k {
	case TargetAnon:
		return "anon"
	case TargetAuth:
		return "auth"
	case TargetBot:
		return "bot"
	}
	return fmt.Sprintf("TargetKind(%d)", uint8(k))
}

// Addressable is anything that names a single Target
type Addressable interface {
	AsTarget() Target
}

// Audience is anything that names a delivery set
type Audience interface {
	AsTargets() Targets
}

// AuthTarget addresses an authenticated user, either all of its sessions or
// one specific session. The user is never AnonUserID.
type AuthTarget struct {
	kind    AuthKind
	user    UserID
	session SessionID
}

// AuthAll targets every live session of user
func AuthAll(user UserID) AuthTarget {
	return AuthTarget{kind: AuthAllKind, user: user}
}

// AuthSpecific targets one session of user
func AuthSpecific(user UserID, session SessionID) AuthTarget {
	return AuthTarget{kind: AuthSpecificKind, user: user, session: session}
}

// ID returns the user of the target
func (a AuthTarget) ID() UserID {
	return a.user
}

// Kind returns the wire discriminant
func (a AuthTarget) Kind() AuthKind {
	return a.kind
}

// Session returns the addressed session, if the target is specific
func (a AuthTarget) Session() (SessionID, bool) {
	if a.kind != AuthSpecificKind {
		return 0, false
	}
	return a.session, true
}

func (a AuthTarget) IsAll() bool      { return a.kind == AuthAllKind }
func (a AuthTarget) IsSpecific() bool { return a.kind == AuthSpecificKind }

func (a AuthTarget) AsTarget() Target {
	return NewAuth(a)
}

func (a AuthTarget) AsTargets() Targets {
	return Few(NewAuth(a))
}

func (a AuthTarget) String() string {
	if a.kind == AuthSpecificKind {
		return fmt.Sprintf("auth/%s/%d", a.user, a.session)
	}
	return "auth/" + a.user.String()
}

// Target is the originator or recipient of a message. It is in exactly one
// mode: Anon, Auth or Bot. The zero value is Anon(0).
type Target struct {
	kind    TargetKind
	session SessionID
	auth    AuthTarget
	bot     BotID
}

// NewDeduced classifies a (user, session) pair. AnonUserID yields Anon(session);
// any other user yields Auth(Specific(user, session)).
func NewDeduced(user UserID, session SessionID) Target {
	if user == AnonUserID {
		return NewAnon(session)
	}
	return NewAuth(AuthSpecific(user, session))
}

// NewAnon targets an unauthenticated session
func NewAnon(session SessionID) Target {
	return Target{kind: TargetAnon, session: session}
}

// NewAuth targets an authenticated user. The user is not checked against AnonUserID.
func NewAuth(at AuthTarget) Target {
	return Target{kind: TargetAuth, auth: at}
}

// NewAuthSpecific is NewAuth(AuthSpecific(user, session)) without sentinel check.
func NewAuthSpecific(user UserID, session SessionID) Target {
	return NewAuth(AuthSpecific(user, session))
}

// NewAuthAll is NewAuth(AuthAll(user))
func NewAuthAll(user UserID) Target {
	return NewAuth(AuthAll(user))
}

// NewBot targets an automated principal
func NewBot(id BotID) Target {
	return Target{kind: TargetBot, bot: id}
}

// Kind returns the wire discriminant
func (t Target) Kind() TargetKind {
	return t.kind
}

func (t Target) IsAnon() bool { return t.kind == TargetAnon }
func (t Target) IsAuth() bool { return t.kind == TargetAuth }
func (t Target) IsBot() bool  { return t.kind == TargetBot }

// ID returns the owning user, or AnonUserID for Anon and Bot targets
func (t Target) ID() UserID {
	if t.kind == TargetAuth {
		return t.auth.ID()
	}
	return AnonUserID
}

// Session returns the session of an Anon target or of a specific Auth target
func (t Target) Session() (SessionID, bool) {
	switch t.kind {
	case TargetAnon:
		return t.session, true
	case TargetAuth:
		return t.auth.Session()
	}
	return 0, false
}

// Auth returns the authenticated target, if t is Auth
func (t Target) Auth() (AuthTarget, bool) {
	if t.kind != TargetAuth {
		return AuthTarget{}, false
	}
	return t.auth, true
}

// Bot returns the bot id, if t is Bot
func (t Target) Bot() (BotID, bool) {
	if t.kind != TargetBot {
		return 0, false
	}
	return t.bot, true
}

// WeakEq reports whether t and other denote the same principal regardless of
// session: Anon compares by session, Auth by user, Bot by id. Targets of
// different modes are never weakly equal.
func (t Target) WeakEq(other Target) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case TargetAnon:
		return t.session == other.session
	case TargetAuth:
		return t.auth.ID() == other.auth.ID()
	case TargetBot:
		return t.bot == other.bot
	}
	return false
}

// ForAll widens an Auth target to every session of its user.
// Anon and Bot targets have no sibling sessions and are returned unchanged.
func (t Target) ForAll() Target {
	if t.kind != TargetAuth {
		return t
	}
	return NewAuthAll(t.auth.ID())
}

func (t Target) AsTarget() Target {
	return t
}

func (t Target) AsTargets() Targets {
	return Few(t)
}

// String returns the log form: anon/<session>, auth/<user>,
// auth/<user>/<session> or bot/<id>
func (t Target) String() string {
	switch t.kind {
	case TargetAnon:
		return fmt.Sprintf("anon/%d", t.session)
	case TargetAuth:
		return t.auth.String()
	case TargetBot:
		return fmt.Sprintf("bot/%d", t.bot)
	}
	return fmt.Sprintf("target(%d)", uint8(t.kind))
}

// Targets is the addressee set of an outbound message: All sessions, or Few
// explicit targets in delivery attempt order. Duplicates are kept.
type Targets struct {
	all bool
	few []Target
}

// AllTargets addresses every connected session
func AllTargets() Targets {
	return Targets{all: true}
}

// Few addresses exactly the given targets. Few() reaches nobody and is
// distinct from AllTargets().
func Few(targets ...Target) Targets {
	return Targets{few: cloneTargets(targets)}
}

// FewAuth addresses the given authenticated targets
func FewAuth(targets ...AuthTarget) Targets {
	if len(targets) == 0 {
		return Targets{}
	}
	few := make([]Target, len(targets))
	for i, at := range targets {
		few[i] = NewAuth(at)
	}
	return Targets{few: few}
}

func cloneTargets(ts []Target) []Target {
	if len(ts) == 0 {
		return nil
	}
	return append([]Target(nil), ts...)
}

func (ts Targets) IsAll() bool {
	return ts.all
}

// List returns a copy of the explicit targets; nil for All
func (ts Targets) List() []Target {
	return cloneTargets(ts.few)
}

// Len returns the number of explicit targets; 0 for All
func (ts Targets) Len() int {
	return len(ts.few)
}

// Contains reports whether t is addressed, comparing principals with WeakEq.
// All contains every target.
func (ts Targets) Contains(t Target) bool {
	if ts.all {
		return true
	}
	for _, c := range ts.few {
		if c.WeakEq(t) {
			return true
		}
	}
	return false
}

// Equal reports field-wise equality, including order and duplicates
func (ts Targets) Equal(other Targets) bool {
	if ts.all != other.all || len(ts.few) != len(other.few) {
		return false
	}
	for i := range ts.few {
		if ts.few[i] != other.few[i] {
			return false
		}
	}
	return true
}

func (ts Targets) AsTargets() Targets {
	return ts
}

func (ts Targets) String() string {
	if ts.all {
		return "all"
	}
	return fmt.Sprintf("few%v", ts.few)
}
