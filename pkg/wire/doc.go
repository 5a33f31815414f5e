// Package wire implements addressing and envelopes for ZenTalk client/server traffic.
//
// The wire package names who a message comes from or goes to, wraps typed
// payloads in request, response and error envelopes, and encodes both to a
// compact binary form and a keyed JSON form.
//
// # Addressing
//
// A Target is exactly one of:
//   - Anon(session): an unauthenticated connection, known only by session
//   - Auth(AuthTarget): an authenticated user, either All of its sessions or
//     one Specific session
//   - Bot(id): an automated principal with its own identifier space
//
// Targets is the addressee set of an outbound message: All connected sessions,
// or Few explicit targets in delivery order. Few() with no targets is valid and
// reaches nobody.
//
// NewDeduced classifies a (user, session) pair: the anonymous sentinel user
// yields Anon, any other user yields Auth(Specific). The other constructors
// trust the caller and never apply the sentinel check.
//
// # Envelopes
//
//   - Req[A]: {From, Action, CorrID}, an inbound request
//   - Res[E]: {Targets, Event}, an outbound broadcast
//   - Error[E]: {To, Err, CorrID}, a directed failure reply
//
// The correlation id of a request must be echoed in every Error produced for
// it; ErrorFor does that:
//
//	req := wire.NewReq(wire.NewAnon(7), lobby.Ping{}, corrid)
//	if err := validate(req); err != nil {
//	    reply := wire.ErrorFor(req, wire.ErrInvalidMessage)
//	    // reply.To == req.From, reply.CorrID == req.CorrID
//	}
//
// # Binary Encoding
//
// Big-endian, no padding:
//   - Unions: 1-byte discriminant followed by fields in declaration order
//   - UserID, CorrelationID: 16 raw bytes
//   - SessionID: uint32, BotID: uint64
//   - Lists, strings, blobs: uint32 length prefix
//
// Unknown discriminants fail with a *DecodeError naming the type and the
// allowed range.
//
// # Frames
//
// When envelopes travel on a stream they are prefixed with a 12-byte header:
//   - Magic (4 bytes): 0x57495245 ("WIRE")
//   - Version (2 bytes): 0x0100
//   - Kind (1 byte): Req, Res or Error
//   - Flags (1 byte): text encoding, stamped payload
//   - Length (4 bytes): payload length
package wire
