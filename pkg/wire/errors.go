package wire

import (
	"encoding/json"
	"fmt"
)

// SessionError is a session-level failure delivered inside Error[E]
type SessionError uint8

const (
	MaximumSessionsReached SessionError = 0
	NoSuchSession          SessionError = 1
	Unauthenticated        SessionError = 2

	sessionErrorCount = 3
)

var sessionErrorNames = [sessionErrorCount]string{
	"maximum_sessions_reached",
	"no_such_session",
	"unauthenticated",
}

func (e SessionError) Error() string {
	switch e {
	case MaximumSessionsReached:
		return "maximum number of sessions reached"
	case NoSuchSession:
		return "session does not exist"
	case Unauthenticated:
		return "user is not authenticated"
	}
	return fmt.Sprintf("session error %d", uint8(e))
}

// Name returns the stable text discriminant
func (e SessionError) Name() string {
	if e < sessionErrorCount {
		return sessionErrorNames[e]
	}
	return fmt.Sprint(uint8(e))
}

// ParseSessionError resolves a text discriminant
func ParseSessionError(name string) (SessionError, error) {
	for i, n := range sessionErrorNames {
		if n == name {
			return SessionError(i), nil
		}
	}
	return 0, &DecodeError{Type: "SessionError", Got: fmt.Sprintf("%q", name), Allowed: sessionErrorNames[:]}
}

func (e SessionError) MessageKey() string    { return "session." + e.Name() }
func (e SessionError) MessageArgs() []any    { return nil }
func (e SessionError) MarshalWire(w *Writer) { w.Uint8(uint8(e)) }

func (e *SessionError) UnmarshalWire(r *Reader) error {
	tag, err := r.Tag("SessionError", sessionErrorCount)
	if err != nil {
		return err
	}
	*e = SessionError(tag)
	return nil
}

func (e SessionError) MarshalText() ([]byte, error) {
	if e >= sessionErrorCount {
		return nil, fmt.Errorf("wire: invalid SessionError %d", uint8(e))
	}
	return []byte(e.Name()), nil
}

func (e *SessionError) UnmarshalText(data []byte) error {
	v, err := ParseSessionError(string(data))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// NetworkCode is the wire discriminant of a NetworkError
type NetworkCode uint8

const (
	RateLimited    NetworkCode = 0
	InvalidMessage NetworkCode = 1
	Socket         NetworkCode = 2 // transport failure, see NetworkError.Detail

	networkCodeCount = 3
)

var networkCodeNames = [networkCodeCount]string{
	"rate_limited",
	"invalid_message",
	"socket",
}

func (c NetworkCode) String() string {
	if c < networkCodeCount {
		return networkCodeNames[c]
	}
	return fmt.Sprint(uint8(c))
}

// ParseNetworkCode resolves a text discriminant
func ParseNetworkCode(name string) (NetworkCode, error) {
	for i, n := range networkCodeNames {
		if n == name {
			return NetworkCode(i), nil
		}
	}
	return 0, &DecodeError{Type: "NetworkError", Got: fmt.Sprintf("%q", name), Allowed: networkCodeNames[:]}
}

// NetworkError is a network-level failure delivered inside Error[E].
// Detail is only carried by Socket errors.
type NetworkError struct {
	Code   NetworkCode
	Detail string
}

var (
	ErrRateLimited    = NetworkError{Code: RateLimited}
	ErrInvalidMessage = NetworkError{Code: InvalidMessage}
)

// SocketFailure reports a transport failure with a free-text detail
func SocketFailure(detail string) NetworkError {
	return NetworkError{Code: Socket, Detail: detail}
}

func (e NetworkError) Error() string {
	switch e.Code {
	case RateLimited:
		return "user has been rate-limited"
	case InvalidMessage:
		return "invalid message received"
	case Socket:
		return "socket error: " + e.Detail
	}
	return fmt.Sprintf("network error %d", uint8(e.Code))
}

func (e NetworkError) MessageKey() string { return "network." + e.Code.String() }

func (e NetworkError) MessageArgs() []any {
	if e.Code == Socket {
		return []any{e.Detail}
	}
	return nil
}

func (e NetworkError) MarshalWire(w *Writer) {
	w.Uint8(uint8(e.Code))
	if e.Code == Socket {
		w.String(e.Detail)
	}
}

func (e *NetworkError) UnmarshalWire(r *Reader) error {
	tag, err := r.Tag("NetworkError", networkCodeCount)
	if err != nil {
		return err
	}
	out := NetworkError{Code: NetworkCode(tag)}
	if out.Code == Socket {
		if out.Detail, err = r.String(); err != nil {
			return err
		}
	}
	*e = out
	return nil
}

type networkErrorJSON struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (e NetworkError) MarshalJSON() ([]byte, error) {
	if e.Code >= networkCodeCount {
		return nil, fmt.Errorf("wire: invalid NetworkError code %d", uint8(e.Code))
	}
	doc := networkErrorJSON{Code: e.Code.String()}
	if e.Code == Socket {
		doc.Detail = e.Detail
	}
	return json.Marshal(doc)
}

func (e *NetworkError) UnmarshalJSON(data []byte) error {
	var doc networkErrorJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	code, err := ParseNetworkCode(doc.Code)
	if err != nil {
		return err
	}
	out := NetworkError{Code: code}
	if code == Socket {
		out.Detail = doc.Detail
	}
	*e = out
	return nil
}
