package wire

// Connection lifecycle events. M tags the service that emitted the event so
// that events of different services do not mix on one bus.

// Connected is emitted for every new session of a user
type Connected[M any] struct {
	UserID    UserID
	SessionID SessionID
}

// Disconnected is emitted when a session closes
type Disconnected[M any] struct {
	UserID    UserID
	SessionID SessionID
}

// FirstConnected is emitted for the first session of a user
type FirstConnected[M any] struct {
	UserID    UserID
	SessionID SessionID
}

func (e Connected[M]) Target() Target                 { return NewDeduced(e.UserID, e.SessionID) }
func (e Connected[M]) Pair() (UserID, SessionID)      { return e.UserID, e.SessionID }
func (e Disconnected[M]) Target() Target              { return NewDeduced(e.UserID, e.SessionID) }
func (e Disconnected[M]) Pair() (UserID, SessionID)   { return e.UserID, e.SessionID }
func (e FirstConnected[M]) Target() Target            { return NewDeduced(e.UserID, e.SessionID) }
func (e FirstConnected[M]) Pair() (UserID, SessionID) { return e.UserID, e.SessionID }

func (e Connected[M]) MarshalWire(w *Writer)      { marshalPair(w, e.UserID, e.SessionID) }
func (e Disconnected[M]) MarshalWire(w *Writer)   { marshalPair(w, e.UserID, e.SessionID) }
func (e FirstConnected[M]) MarshalWire(w *Writer) { marshalPair(w, e.UserID, e.SessionID) }

func (e *Connected[M]) UnmarshalWire(r *Reader) (err error) {
	e.UserID, e.SessionID, err = unmarshalPair(r)
	return err
}

func (e *Disconnected[M]) UnmarshalWire(r *Reader) (err error) {
	e.UserID, e.SessionID, err = unmarshalPair(r)
	return err
}

func (e *FirstConnected[M]) UnmarshalWire(r *Reader) (err error) {
	e.UserID, e.SessionID, err = unmarshalPair(r)
	return err
}

func marshalPair(w *Writer, user UserID, session SessionID) {
	w.UserID(user)
	w.Uint32(uint32(session))
}

func unmarshalPair(r *Reader) (UserID, SessionID, error) {
	user, err := r.UserID()
	if err != nil {
		return UserID{}, 0, err
	}
	session, err := r.Uint32()
	if err != nil {
		return UserID{}, 0, err
	}
	return user, SessionID(session), nil
}

// SessionAuthenticated is sent to a session once its user is known
type SessionAuthenticated struct{}

// SessionUnauthenticated is sent to a session that logged out or failed to
// log in. The SessionError of the same name is the failure reply instead.
type SessionUnauthenticated struct{}

func (SessionAuthenticated) MarshalWire(*Writer)          {}
func (*SessionAuthenticated) UnmarshalWire(*Reader) error { return nil }

func (SessionUnauthenticated) MarshalWire(*Writer)          {}
func (*SessionUnauthenticated) UnmarshalWire(*Reader) error { return nil }
