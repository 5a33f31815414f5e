package lobby

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ZentaChain/zentalk-wire/pkg/journal"
	"github.com/ZentaChain/zentalk-wire/pkg/wire"
)

// ErrClosed is returned by Server once it has been stopped
var ErrClosed = errors.New("lobby: server closed")

// outboundQueue is the per-connection frame backlog before frames are dropped
const outboundQueue = 64

// ServerConfig controls how replies are framed
type ServerConfig struct {
	// StampEvents wraps every response event in wire.Stamped and sets
	// wire.FlagStamped on its frame.
	StampEvents bool
}

// Server speaks framed wire envelopes to the lobby. Each connection is one
// session; the session's target replaces whatever From a request carries.
// Replies use the text form when the last request on a connection did.
type Server struct {
	lobby   *Lobby
	journal *journal.Journal
	config  ServerConfig
	logger  *slog.Logger

	sessions atomic.Uint32

	mu       sync.RWMutex
	conns    map[wire.Target]*conn
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

type conn struct {
	target wire.Target
	rwc    io.ReadWriteCloser
	out    chan []byte
	text   atomic.Bool
}

// NewServer serves l. A nil logger uses slog.Default.
func NewServer(l *Lobby, config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		lobby:  l,
		config: config,
		logger: logger.With("component", "lobby-server"),
		conns:  make(map[wire.Target]*conn),
	}
}

// AttachJournal records every request and reply in j
func (s *Server) AttachJournal(j *journal.Journal) {
	s.journal = j
}

// Start listens on addr and serves every accepted connection anonymously
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return ErrClosed
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("listening", "addr", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

// Addr returns the listening address, nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	for {
		c, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Error("accept failed", "error", err)
			}
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.ServeConn(context.Background(), c, wire.AnonUserID); err != nil && !errors.Is(err, ErrClosed) {
				s.logger.Warn("connection ended", "remote", c.RemoteAddr(), "error", err)
			}
		}()
	}
}

// Stop closes the listener and every connection, then waits for them to end
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, c := range s.conns {
		c.rwc.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Sessions returns the connected targets
func (s *Server) Sessions() []wire.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()

	targets := make([]wire.Target, 0, len(s.conns))
	for t := range s.conns {
		targets = append(targets, t)
	}
	return targets
}

// ServeConn runs one session for user over rwc until the peer hangs up, ctx
// ends or the server stops. wire.AnonUserID makes an anonymous session. rwc is
// closed once the replies queued before return are written.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser, user wire.UserID) error {
	c, err := s.register(rwc, user)
	if err != nil {
		rwc.Close()
		return err
	}
	defer s.unregister(context.WithoutCancel(ctx), c)

	stop := context.AfterFunc(ctx, func() { rwc.Close() })
	defer stop()

	for {
		h, payload, err := wire.ReadFrame(rwc)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return err
			}
			// the stream cannot be resynchronized after a bad header
			s.logger.Warn("bad frame", "target", c.target, "error", err)
			s.reject(ctx, c, wire.CorrelationID{})
			return err
		}
		s.handleFrame(ctx, c, h, payload)
	}
}

func (s *Server) register(rwc io.ReadWriteCloser, user wire.UserID) (*conn, error) {
	c := &conn{
		target: wire.NewDeduced(user, wire.SessionID(s.sessions.Add(1))),
		rwc:    rwc,
		out:    make(chan []byte, outboundQueue),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.conns[c.target] = c
	s.wg.Add(1)
	s.mu.Unlock()

	go s.writeLoop(c)

	session, _ := c.target.Session()
	if first, ok := s.lobby.Connected(wire.Connected[Lobby]{UserID: c.target.ID(), SessionID: session}); ok {
		s.logger.Info("first session of user", "target", first.Target())
	}
	s.logger.Info("session opened", "target", c.target)
	return c, nil
}

func (s *Server) unregister(ctx context.Context, c *conn) {
	s.mu.Lock()
	delete(s.conns, c.target)
	close(c.out)
	s.mu.Unlock()

	session, _ := c.target.Session()
	left := s.lobby.Disconnected(wire.Disconnected[Lobby]{UserID: c.target.ID(), SessionID: session})
	s.deliver(ctx, left)

	s.logger.Info("session closed", "target", c.target)
}

// writeLoop flushes c.out to the peer and closes the stream once unregister
// has closed c.out
func (s *Server) writeLoop(c *conn) {
	defer s.wg.Done()
	defer c.rwc.Close()

	for frame := range c.out {
		if _, err := c.rwc.Write(frame); err != nil {
			s.logger.Debug("write failed", "target", c.target, "error", err)
			c.rwc.Close()
			// drain so unregister never blocks
			for range c.out {
			}
			return
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, c *conn, h *wire.FrameHeader, payload []byte) {
	text := h.HasFlag(wire.FlagText)
	c.text.Store(text)

	if h.Kind != wire.KindReq || h.HasFlag(wire.FlagStamped) {
		s.logger.Warn("unexpected frame", "target", c.target, "kind", h.Kind, "flags", h.Flags)
		s.reject(ctx, c, wire.CorrelationID{})
		return
	}

	var req wire.Req[Action]
	var err error
	if text {
		req, err = wire.UnmarshalReqText(payload, ActionCodec)
	} else {
		req, err = wire.UnmarshalReq(payload, ActionCodec)
	}
	if err != nil {
		s.logger.Warn("undecodable request", "target", c.target, "error", err)
		s.reject(ctx, c, req.CorrID)
		return
	}
	req.From = c.target

	if s.journal != nil {
		if _, err := journal.RecordReq(ctx, s.journal, req, ActionCodec); err != nil {
			s.logger.Error("journal request", "corrid", req.CorrID, "error", err)
		}
	}

	res, failure := s.lobby.Handle(ctx, req)
	if failure != nil {
		s.sendError(ctx, c, *failure)
		return
	}

	if s.journal != nil {
		if _, err := s.journal.ResolveCorr(ctx, req.CorrID); err != nil {
			s.logger.Error("journal resolve", "corrid", req.CorrID, "error", err)
		}
	}
	s.deliver(ctx, res)
}

// reject answers an unusable frame with an invalid message error
func (s *Server) reject(ctx context.Context, c *conn, corrid wire.CorrelationID) {
	s.sendError(ctx, c, wire.NewError(c.target, Failure(Network{Err: wire.ErrInvalidMessage}), corrid))
}

func (s *Server) sendError(ctx context.Context, c *conn, e wire.Error[Failure]) {
	if s.journal != nil {
		if _, err := journal.RecordError(ctx, s.journal, e, FailureCodec); err != nil {
			s.logger.Error("journal error", "corrid", e.CorrID, "error", err)
		}
	}

	h := wire.NewFrame(wire.KindError, 0)
	var payload []byte
	var err error
	if c.text.Load() {
		h.SetFlag(wire.FlagText)
		payload, err = wire.MarshalErrorText(e, FailureCodec)
	} else {
		payload = wire.MarshalError(e, FailureCodec)
	}
	if err != nil {
		s.logger.Error("encode error reply", "target", c.target, "error", err)
		return
	}
	s.enqueue(c, wire.AppendFrame(nil, h, payload))
}

// deliver fans responses out to every connected session they address
func (s *Server) deliver(ctx context.Context, responses []wire.Res[Event]) {
	for _, res := range responses {
		if s.journal != nil {
			if _, err := journal.RecordRes(ctx, s.journal, res, EventCodec); err != nil {
				s.logger.Error("journal response", "error", err)
			}
		}

		encoded := make(map[bool][]byte, 2)
		stamped := wire.Stamp(res.Event)

		s.mu.RLock()
		for _, c := range s.conns {
			if !reaches(res.Targets, c.target) {
				continue
			}
			text := c.text.Load()
			frame, ok := encoded[text]
			if !ok {
				var err error
				if frame, err = s.encodeRes(res, stamped, text); err != nil {
					s.logger.Error("encode response", "event", res.Event, "error", err)
					break
				}
				encoded[text] = frame
			}
			s.enqueue(c, frame)
		}
		s.mu.RUnlock()
	}
}

func (s *Server) encodeRes(res wire.Res[Event], stamped wire.Stamped[Event], text bool) ([]byte, error) {
	h := wire.NewFrame(wire.KindRes, 0)
	if text {
		h.SetFlag(wire.FlagText)
	}

	var payload []byte
	var err error
	if s.config.StampEvents {
		h.SetFlag(wire.FlagStamped)
		wrapped := wire.NewRes(res.Targets, stamped)
		codec := wire.StampedCodec(EventCodec)
		if text {
			payload, err = wire.MarshalResText(wrapped, codec)
		} else {
			payload = wire.MarshalRes(wrapped, codec)
		}
	} else if text {
		payload, err = wire.MarshalResText(res, EventCodec)
	} else {
		payload = wire.MarshalRes(res, EventCodec)
	}
	if err != nil {
		return nil, err
	}
	return wire.AppendFrame(nil, h, payload), nil
}

// enqueue drops the frame when the peer is not keeping up. c must still be
// registered: out is closed by unregister.
func (s *Server) enqueue(c *conn, frame []byte) {
	select {
	case c.out <- frame:
	default:
		s.logger.Warn("outbound queue full, dropping frame", "target", c.target)
	}
}

// reaches reports whether a session is addressed. An Auth target for all
// sessions reaches every session of its user; every other target must match
// the session exactly.
func reaches(ts wire.Targets, session wire.Target) bool {
	if ts.IsAll() {
		return true
	}
	for _, t := range ts.List() {
		if t == session {
			return true
		}
		if at, ok := t.Auth(); ok && at.IsAll() && session.IsAuth() && session.ID() == at.ID() {
			return true
		}
	}
	return false
}
