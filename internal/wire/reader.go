// Package wire holds the byte-level primitives of the Hash binary format:
// fixed-width little-endian integers, length-prefixed strings and raw
// byte runs over an in-memory buffer.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrUnexpectedEOF is returned when a read needs more bytes than remain.
var ErrUnexpectedEOF = errors.New("wire: unexpected end of input")

// Reader consumes a byte slice front to back. Slices it returns alias the
// input.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// EOF reports whether every byte has been consumed.
func (r *Reader) EOF() bool { return r.pos >= len(r.data) }

// ReadByte consumes one byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Next consumes n bytes and returns them without copying.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint32 consumes a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
