// Package wiretest provides identifier pools and fixtures for tests that
// build wire envelopes.
package wiretest

import (
	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

// Pool mints targets that are pairwise distinct under WeakEq. The zero value
// is ready to use. A Pool is not safe for concurrent use.
type Pool struct {
	curr uint64
}

// next returns the counter and advances it. Counting starts at 1 so that
// anonymous slot 0 is never handed out.
func (p *Pool) next() uint64 {
	if p.curr == 0 {
		p.curr = 1
	}
	n := p.curr
	p.curr++
	return n
}

// NextAnon returns an anonymous target with a fresh session
func (p *Pool) NextAnon() wire.Target {
	return wire.NewAnon(wire.SessionID(p.next()))
}

// NextAuth returns an authenticated target for a fresh user on session 0
func (p *Pool) NextAuth() wire.Target {
	n := p.next()
	return wire.NewDeduced(wire.UserIDFromUint64Pair(n, n), 0)
}

// NextBot returns a fresh bot target
func (p *Pool) NextBot() wire.Target {
	return wire.NewBot(wire.BotID(p.next()))
}

// Next is NextAuth
func (p *Pool) Next() wire.Target {
	return p.NextAuth()
}

// NextUser returns a fresh user id
func (p *Pool) NextUser() wire.UserID {
	n := p.next()
	return wire.UserIDFromUint64Pair(n, n)
}
