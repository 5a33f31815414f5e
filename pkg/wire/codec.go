package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrShortBuffer   = errors.New("wire: buffer too short")
	ErrTrailingBytes = errors.New("wire: trailing bytes after value")
	ErrLengthTooBig  = errors.New("wire: length prefix exceeds remaining buffer")
)

// DecodeError reports a union discriminant that is not defined for Type
type DecodeError struct {
	Type    string
	Got     string   // discriminant as read (number or key)
	Allowed []string // discriminants Type accepts, in order
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: invalid %s discriminant %s (allowed %s)", e.Type, e.Got, e.allowedRange())
}

func (e *DecodeError) allowedRange() string {
	if len(e.Allowed) == 0 {
		return "none"
	}
	if len(e.Allowed) > 2 && contiguous(e.Allowed) {
		return e.Allowed[0] + ".." + e.Allowed[len(e.Allowed)-1]
	}
	return strings.Join(e.Allowed, "|")
}

// contiguous reports whether list is an ascending run of consecutive integers
func contiguous(list []string) bool {
	prev := -1
	for i, s := range list {
		n, err := strconv.Atoi(s)
		if err != nil || (i > 0 && n != prev+1) {
			return false
		}
		prev = n
	}
	return true
}

// Writer appends big-endian encoded values to a growing buffer
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with room for size bytes
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded bytes
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Uint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) Uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) Uint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *Writer) Int8(v int8)   { w.Uint8(uint8(v)) }
func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }
func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
	} else {
		w.Uint8(0)
	}
}

// Raw appends b without a length prefix
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Blob appends b with a 4-byte length prefix
func (w *Writer) Blob(b []byte) {
	w.Uint32(uint32(len(b)))
	w.Raw(b)
}

// String appends s with a 4-byte length prefix
func (w *Writer) String(s string) {
	w.Uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader consumes big-endian encoded values from a buffer
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a reader over buf
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Finish fails if unread bytes are left
func (r *Reader) Finish() error {
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, r.Remaining())
	}
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, &DecodeError{Type: "bool", Got: fmt.Sprint(v), Allowed: []string{"0", "1"}}
}

// Raw reads exactly n bytes. The result aliases the reader's buffer.
func (r *Reader) Raw(n int) ([]byte, error) {
	return r.take(n)
}

// Blob reads a length-prefixed byte slice into a fresh copy
func (r *Reader) Blob() ([]byte, error) {
	n, err := r.length()
	if err != nil {
		return nil, err
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// String reads a length-prefixed string
func (r *Reader) String() (string, error) {
	n, err := r.length()
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len reads a 4-byte element count and checks it against the remaining buffer,
// assuming each element takes at least minSize bytes.
func (r *Reader) Len(minSize int) (int, error) {
	n, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if minSize < 1 {
		minSize = 1
	}
	if uint64(n)*uint64(minSize) > uint64(r.Remaining()) {
		return 0, ErrLengthTooBig
	}
	return int(n), nil
}

func (r *Reader) length() (int, error) {
	n, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if int64(n) > int64(r.Remaining()) {
		return 0, ErrLengthTooBig
	}
	return int(n), nil
}

// Tag reads a union discriminant and checks it is below count.
// typeName is reported in the *DecodeError on failure.
func (r *Reader) Tag(typeName string, count uint8) (uint8, error) {
	tag, err := r.Uint8()
	if err != nil {
		return 0, err
	}
	if tag >= count {
		return 0, &DecodeError{Type: typeName, Got: fmt.Sprint(tag), Allowed: numericRange(0, count-1)}
	}
	return tag, nil
}

func numericRange(lo, hi uint8) []string {
	out := make([]string, 0, int(hi-lo)+1)
	for i := int(lo); i <= int(hi); i++ {
		out = append(out, fmt.Sprint(i))
	}
	return out
}

func (w *Writer) UserID(id UserID) {
	w.Raw(id[:])
}

func (w *Writer) CorrelationID(id CorrelationID) {
	w.Raw(id[:])
}

func (r *Reader) UserID() (UserID, error) {
	var id UserID
	b, err := r.take(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

func (r *Reader) CorrelationID() (CorrelationID, error) {
	var id CorrelationID
	b, err := r.take(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// Marshaler is implemented by values that know their binary layout
type Marshaler interface {
	MarshalWire(w *Writer)
}

// Unmarshaler is implemented by pointers to values that can decode themselves
type Unmarshaler interface {
	UnmarshalWire(r *Reader) error
}

// Encode encodes v into a fresh buffer
func Encode(v Marshaler) []byte {
	w := NewWriter(64)
	v.MarshalWire(w)
	return w.Bytes()
}

// Decode decodes buf into v and rejects trailing bytes
func Decode(buf []byte, v Unmarshaler) error {
	r := NewReader(buf)
	if err := v.UnmarshalWire(r); err != nil {
		return err
	}
	return r.Finish()
}
