package wire

import "encoding/binary"

// Writer appends little-endian primitives to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with the given capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// WrapWriter returns a Writer that appends after the contents of buf.
func WrapWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Bytes returns everything written, including any wrapped prefix.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the length of Bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Detach hands the written bytes to the caller and starts a new buffer of
// the given capacity.
func (w *Writer) Detach(capacity int) []byte {
	b := w.buf
	w.buf = make([]byte, 0, capacity)
	return b
}

// WriteBytes writes a slice of bytes.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(n uint8) { w.buf = append(w.buf, n) }

// WriteUint32 writes a little-endian 32-bit unsigned integer.
func (w *Writer) WriteUint32(n uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, n) }

// WriteUint64 writes a little-endian 64-bit unsigned integer.
func (w *Writer) WriteUint64(n uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, n) }

// WriteBool writes 1 for true and 0 for false.
func (w *Writer) WriteBool(b bool) {
	var v uint8
	if b {
		v = 1
	}
	w.WriteUint8(v)
}

// WriteString writes a u32 length followed by the bytes of s.
func (w *Writer) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteShortString writes a u8 length followed by the bytes of s. The
// caller checks that len(s) fits in a byte.
func (w *Writer) WriteShortString(s string) {
	w.WriteUint8(uint8(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteFixed writes a fixed-size value or a slice of them as
// encoding/binary lays them out in little-endian order. Complex numbers
// are written real part first.
func (w *Writer) WriteFixed(data any) error {
	out, err := binary.Append(w.buf, binary.LittleEndian, data)
	if err != nil {
		return err
	}
	w.buf = out
	return nil
}
