package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// PayloadCodec encodes one payload type in both wire encodings.
// Envelopes are generic over their payload and borrow its codec.
type PayloadCodec[T any] interface {
	EncodeWire(w *Writer, v T)
	DecodeWire(r *Reader) (T, error)
	EncodeText(v T) ([]byte, error)
	DecodeText(data []byte) (T, error)
}

// WireValue is satisfied by *T when T encodes itself
type WireValue[T any] interface {
	*T
	Marshaler
	Unmarshaler
}

// Self returns a codec for a type that implements MarshalWire/UnmarshalWire.
// The text form goes through encoding/json.
func Self[T any, P WireValue[T]]() PayloadCodec[T] {
	return selfCodec[T, P]{}
}

type selfCodec[T any, P WireValue[T]] struct{}

func (selfCodec[T, P]) EncodeWire(w *Writer, v T) {
	P(&v).MarshalWire(w)
}

func (selfCodec[T, P]) DecodeWire(r *Reader) (T, error) {
	var v T
	err := P(&v).UnmarshalWire(r)
	return v, err
}

func (selfCodec[T, P]) EncodeText(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (selfCodec[T, P]) DecodeText(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// Codecs for the payloads defined by this package
var (
	SessionErrorCodec = Self[SessionError]()
	NetworkErrorCodec = Self[NetworkError]()
	TargetCodec       = Self[Target]()
)

// StringCodec carries plain text payloads
var StringCodec PayloadCodec[string] = stringCodec{}

type stringCodec struct{}

func (stringCodec) EncodeWire(w *Writer, v string)      { w.String(v) }
func (stringCodec) DecodeWire(r *Reader) (string, error) { return r.String() }
func (stringCodec) EncodeText(v string) ([]byte, error)  { return json.Marshal(v) }

func (stringCodec) DecodeText(data []byte) (string, error) {
	var v string
	err := json.Unmarshal(data, &v)
	return v, err
}

// Stamped decorates a payload with its capture time (unix milliseconds)
type Stamped[E any] struct {
	At    int64
	Event E
}

// Stamp captures e at the current time
func Stamp[E any](e E) Stamped[E] {
	return Stamped[E]{At: NowUnixMilli(), Event: e}
}

// StampAt captures e at a given unix millisecond time
func StampAt[E any](at int64, e E) Stamped[E] {
	return Stamped[E]{At: at, Event: e}
}

// StampedCodec wraps the codec of E with the timestamp decorator
func StampedCodec[E any](inner PayloadCodec[E]) PayloadCodec[Stamped[E]] {
	return stampedCodec[E]{inner: inner}
}

type stampedCodec[E any] struct {
	inner PayloadCodec[E]
}

type stampedJSON struct {
	At    int64           `json:"timestamp"`
	Event json.RawMessage `json:"event"`
}

func (c stampedCodec[E]) EncodeWire(w *Writer, v Stamped[E]) {
	w.Int64(v.At)
	c.inner.EncodeWire(w, v.Event)
}

func (c stampedCodec[E]) DecodeWire(r *Reader) (Stamped[E], error) {
	at, err := r.Int64()
	if err != nil {
		return Stamped[E]{}, err
	}
	event, err := c.inner.DecodeWire(r)
	if err != nil {
		return Stamped[E]{}, err
	}
	return Stamped[E]{At: at, Event: event}, nil
}

func (c stampedCodec[E]) EncodeText(v Stamped[E]) ([]byte, error) {
	event, err := c.inner.EncodeText(v.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stampedJSON{At: v.At, Event: event})
}

func (c stampedCodec[E]) DecodeText(data []byte) (Stamped[E], error) {
	if err := knownKeys(data, "Stamped", "timestamp", "event"); err != nil {
		return Stamped[E]{}, err
	}
	var doc stampedJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Stamped[E]{}, err
	}
	event, err := c.inner.DecodeText(doc.Event)
	if err != nil {
		return Stamped[E]{}, fmt.Errorf("stamped event: %w", err)
	}
	return Stamped[E]{At: doc.At, Event: event}, nil
}

// ===== UNION TEXT =====

type unionJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalUnionText encodes one variant of a union as {"type":variant,"value":v}
func MarshalUnionText(variant string, v any) ([]byte, error) {
	value, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(unionJSON{Type: variant, Value: value})
}

// UnmarshalUnionText splits a union document into its variant name and raw
// value. "type" is required, "value" may be omitted and no other key is
// accepted.
func UnmarshalUnionText(data []byte, typeName string) (string, json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("wire: %s: %w", typeName, err)
	}
	for key := range doc {
		if key != "type" && key != "value" {
			return "", nil, &DecodeError{Type: typeName, Got: fmt.Sprintf("%q", key), Allowed: []string{"type", "value"}}
		}
	}
	raw, ok := doc["type"]
	if !ok {
		return "", nil, fmt.Errorf("wire: %s: missing key %q", typeName, "type")
	}
	var variant string
	if err := json.Unmarshal(raw, &variant); err != nil {
		return "", nil, fmt.Errorf("wire: %s type: %w", typeName, err)
	}
	return variant, doc["value"], nil
}

// UnmarshalStrict decodes one JSON value into v and rejects object keys v
// does not declare. Empty data leaves v untouched.
func UnmarshalStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("wire: trailing data after JSON value")
	}
	return nil
}
