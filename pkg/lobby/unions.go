package lobby

import "github.com/ZentaChain/zentalk-wire/pkg/wire"

//go:generate go run github.com/ZentaChain/zentalk-wire/cmd/wiresplit -type=action,event,failure

// Requests a session can send to the lobby.
//
//wire:union Action
//wire:derive codec,stringer
type action struct {
	Ping  struct{}                           `wire:"0"`
	Say   struct{ room uint32; text string } `wire:"1"`
	Join  func(room uint32, nick string)     `wire:"2"`
	Leave struct{ room uint32 }              `wire:"3"`
}

// Broadcasts the lobby sends back.
//
//wire:union Event
//wire:derive codec,stringer
type event struct {
	Pong   struct{}                                             `wire:"0"`
	Said   struct{ room uint32; from wire.Target; text string } `wire:"1"`
	Joined func(room uint32, who wire.Target, nick string)      `wire:"2"`
	Left   struct{ room uint32; who wire.Target }               `wire:"3"`
}

// Failure replies, delivered inside wire.Error.
//
//wire:union Failure
//wire:derive codec,stringer
type failure struct {
	Session   struct{ err wire.SessionError } `wire:"0"`
	Network   struct{ err wire.NetworkError } `wire:"1"`
	NotInRoom struct{ room uint32 }           `wire:"2"`
}
