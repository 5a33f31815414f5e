package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameMagic is "WIRE"
	FrameMagic uint32 = 0x57495245

	// FrameVersion is v1.0
	FrameVersion uint16 = 0x0100

	// FrameHeaderSize is the fixed header length
	FrameHeaderSize = 12

	// MaxFrameSize bounds the payload of one frame (4MB)
	MaxFrameSize = 4 * 1024 * 1024
)

// FrameKind says which envelope a frame carries
type FrameKind uint8

const (
	KindReq   FrameKind = 1
	KindRes   FrameKind = 2
	KindError FrameKind = 3
)

func (k FrameKind) String() string {
	switch k {
	case KindReq:
		return "req"
	case KindRes:
		return "res"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("FrameKind(%d)", uint8(k))
}

// Frame flags
const (
	FlagText    uint8 = 1 << 0 // payload is the JSON form
	FlagStamped uint8 = 1 << 1 // payload is wrapped in Stamped
)

var (
	ErrInvalidMagic   = errors.New("wire: invalid frame magic")
	ErrInvalidVersion = errors.New("wire: unsupported frame version")
	ErrInvalidHeader  = errors.New("wire: invalid frame header")
	ErrFrameTooLarge  = errors.New("wire: frame too large")
)

// FrameHeader precedes every envelope on a stream
type FrameHeader struct {
	Magic   uint32
	Version uint16
	Kind    FrameKind
	Flags   uint8
	Length  uint32 // payload length
}

// NewFrame builds a header for a payload of the given kind and length
func NewFrame(kind FrameKind, length int) *FrameHeader {
	return &FrameHeader{
		Magic:   FrameMagic,
		Version: FrameVersion,
		Kind:    kind,
		Length:  uint32(length),
	}
}

// Encode encodes the header to bytes
func (h *FrameHeader) Encode() []byte {
	buf := make([]byte, FrameHeaderSize)

	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = uint8(h.Kind)
	buf[7] = h.Flags
	binary.BigEndian.PutUint32(buf[8:12], h.Length)

	return buf
}

// Decode decodes the header from bytes
func (h *FrameHeader) Decode(buf []byte) error {
	if len(buf) < FrameHeaderSize {
		return ErrInvalidHeader
	}

	h.Magic = binary.BigEndian.Uint32(buf[0:4])
	h.Version = binary.BigEndian.Uint16(buf[4:6])
	h.Kind = FrameKind(buf[6])
	h.Flags = buf[7]
	h.Length = binary.BigEndian.Uint32(buf[8:12])

	return nil
}

// Validate validates the header
func (h *FrameHeader) Validate() error {
	if h.Magic != FrameMagic {
		return ErrInvalidMagic
	}

	if h.Version != FrameVersion {
		return ErrInvalidVersion
	}

	if h.Kind < KindReq || h.Kind > KindError {
		return fmt.Errorf("%w: %w", ErrInvalidHeader, &DecodeError{
			Type:    "FrameKind",
			Got:     fmt.Sprint(uint8(h.Kind)),
			Allowed: numericRange(uint8(KindReq), uint8(KindError)),
		})
	}

	if h.Length > MaxFrameSize {
		return ErrFrameTooLarge
	}

	return nil
}

// HasFlag checks if a flag is set
func (h *FrameHeader) HasFlag(flag uint8) bool {
	return (h.Flags & flag) != 0
}

// SetFlag sets a flag
func (h *FrameHeader) SetFlag(flag uint8) {
	h.Flags |= flag
}

// ClearFlag clears a flag
func (h *FrameHeader) ClearFlag(flag uint8) {
	h.Flags &^= flag
}

// ReadFrame reads a header and its payload from an io.Reader
func ReadFrame(r io.Reader) (*FrameHeader, []byte, error) {
	buf := make([]byte, FrameHeaderSize)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, err
	}

	header := &FrameHeader{}
	if err := header.Decode(buf); err != nil {
		return nil, nil, err
	}

	if err := header.Validate(); err != nil {
		return nil, nil, err
	}

	payload := make([]byte, header.Length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, fmt.Errorf("read frame payload: %w", err)
	}

	return header, payload, nil
}

// WriteFrame writes a header followed by its payload. The header length is
// taken from payload.
func WriteFrame(w io.Writer, h *FrameHeader, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	h.Length = uint32(len(payload))

	if _, err := w.Write(h.Encode()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// AppendFrame returns header and payload as one buffer
func AppendFrame(dst []byte, h *FrameHeader, payload []byte) []byte {
	h.Length = uint32(len(payload))
	dst = append(dst, h.Encode()...)
	return append(dst, payload...)
}

// SplitFrame parses a buffer holding exactly one frame
func SplitFrame(buf []byte) (*FrameHeader, []byte, error) {
	header := &FrameHeader{}
	if err := header.Decode(buf); err != nil {
		return nil, nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, nil, err
	}
	payload := buf[FrameHeaderSize:]
	if len(payload) != int(header.Length) {
		return nil, nil, fmt.Errorf("%w: length %d, have %d", ErrInvalidHeader, header.Length, len(payload))
	}
	return header, payload, nil
}
