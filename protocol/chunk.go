// Package protocol implements the chunked wire format: every message is a
// 5-byte header (big-endian uint32 payload length, then a 1-byte type tag)
// followed by the payload bytes verbatim.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderLen is the fixed size of a chunk header on the wire.
const HeaderLen = 5

// MaxPayloadLen bounds decode-side allocations against garbage length
// fields.
const MaxPayloadLen = 64 << 20

// Header describes one chunk: the payload length and the chunk kind.
type Header struct {
	Length uint32
	Kind   Kind
}

// Chunk is one complete wire message.
type Chunk struct {
	Kind    Kind
	Payload []byte
}

// EncodeHeader produces the fixed 5-byte header: length first, tag second,
// no padding.
func EncodeHeader(kind Kind, length uint32) [HeaderLen]byte {
	var b [HeaderLen]byte
	binary.BigEndian.PutUint32(b[:4], length)
	b[4] = kind.Tag()
	return b
}

// EncodeChunk produces the full wire form of one chunk.
func EncodeChunk(kind Kind, payload []byte) []byte {
	hdr := EncodeHeader(kind, uint32(len(payload)))
	return append(hdr[:], payload...)
}

// DecodeHeader parses a 5-byte header. An unrecognized tag is an
// ErrUnknownKind error, never a fallback kind.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(b))
	}
	kind, err := KindForTag(b[4])
	if err != nil {
		return Header{}, err
	}
	length := binary.BigEndian.Uint32(b[:4])
	if length > MaxPayloadLen {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
	}
	return Header{Length: length, Kind: kind}, nil
}

// WriteChunk writes one framed chunk to w: header, then payload if any.
// Callers that share w across goroutines must serialize calls so frames
// never interleave.
func WriteChunk(w io.Writer, kind Kind, payload []byte) error {
	hdr := EncodeHeader(kind, uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadChunk reads exactly one chunk from r, blocking until the header and
// the full payload have arrived.
func ReadChunk(r io.Reader) (Chunk, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Chunk{}, fmt.Errorf("%w: %s", ErrShortHeader, err)
		}
		return Chunk{}, err
	}
	h, err := DecodeHeader(hdr[:])
	if err != nil {
		return Chunk{}, err
	}
	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Chunk{}, fmt.Errorf("reading %s payload: %w", h.Kind, err)
		}
	}
	return Chunk{Kind: h.Kind, Payload: payload}, nil
}
