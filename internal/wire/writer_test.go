package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestWriterPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w *Writer)
		expected []byte
	}{
		{"uint8", func(w *Writer) { w.WriteUint8(0xab) }, []byte{0xab}},
		{"uint32", func(w *Writer) { w.WriteUint32(0x01020304) }, []byte{0x04, 0x03, 0x02, 0x01}},
		{"uint64", func(w *Writer) { w.WriteUint64(1) }, []byte{0x01, 0, 0, 0, 0, 0, 0, 0}},
		{"bool-true", func(w *Writer) { w.WriteBool(true) }, []byte{0x01}},
		{"bool-false", func(w *Writer) { w.WriteBool(false) }, []byte{0x00}},
		{"string", func(w *Writer) { w.WriteString("ab") }, []byte{0x02, 0, 0, 0, 'a', 'b'}},
		{"short-string", func(w *Writer) { w.WriteShortString("ab") }, []byte{0x02, 'a', 'b'}},
		{"empty-string", func(w *Writer) { w.WriteString("") }, []byte{0, 0, 0, 0}},
		{"bytes", func(w *Writer) { w.WriteBytes([]byte{9, 8}) }, []byte{9, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(16)
			tt.write(w)
			if !bytes.Equal(w.Bytes(), tt.expected) {
				t.Errorf("got %v, want %v", w.Bytes(), tt.expected)
			}
		})
	}
}

func TestWriteFixed(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected []byte
	}{
		{"int16 slice", []int16{1, -1}, []byte{0x01, 0x00, 0xff, 0xff}},
		{"complex64", complex64(complex(1, 0)), []byte{0x00, 0x00, 0x80, 0x3f, 0, 0, 0, 0}},
		{"double", -1.0, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0xbf}},
		{"bools", []bool{true, false}, []byte{1, 0}},
		{"empty", []uint32{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(16)
			if err := w.WriteFixed(tt.data); err != nil {
				t.Fatalf("WriteFixed failed: %v", err)
			}
			if !bytes.Equal(w.Bytes(), tt.expected) {
				t.Errorf("got %v, want %v", w.Bytes(), tt.expected)
			}
		})
	}

	if err := NewWriter(0).WriteFixed("not fixed"); err == nil {
		t.Error("expected error for variable-size value")
	}
}

func TestWriteFixedFloatBits(t *testing.T) {
	values := []float32{0, float32(math.Copysign(0, -1)), 3.141, math.MaxFloat32,
		math.SmallestNonzeroFloat32, float32(math.Inf(-1)), float32(math.NaN())}

	for _, v := range values {
		w := NewWriter(4)
		if err := w.WriteFixed(v); err != nil {
			t.Fatal(err)
		}
		got, err := NewReader(w.Bytes()).ReadUint32()
		if err != nil {
			t.Fatalf("ReadUint32 failed: %v", err)
		}
		if got != math.Float32bits(v) {
			t.Errorf("bits differ: got %08x, want %08x", got, math.Float32bits(v))
		}
	}
}

func TestDetach(t *testing.T) {
	w := NewWriter(4)
	w.WriteUint32(42)
	first := w.Detach(4)
	w.WriteUint32(43)

	if len(first) != 4 || first[0] != 42 {
		t.Fatalf("detached bytes changed: %v", first)
	}
	if w.Len() != 4 || w.Bytes()[0] != 43 {
		t.Fatalf("writer after detach: %v", w.Bytes())
	}
}

func TestWrapWriterAppends(t *testing.T) {
	w := WrapWriter([]byte{1, 2})
	w.WriteUint8(3)
	if !bytes.Equal(w.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", w.Bytes())
	}
}

func TestReaderTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"uint32", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.ReadUint32(); return err }},
		{"byte", nil, func(r *Reader) error { _, err := r.ReadByte(); return err }},
		{"next", []byte{1}, func(r *Reader) error { _, err := r.Next(2); return err }},
		{"negative-next", []byte{1}, func(r *Reader) error { _, err := r.Next(-1); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(tt.data))
			if !errors.Is(err, ErrUnexpectedEOF) {
				t.Errorf("got %v, want ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestReaderPosition(t *testing.T) {
	r := NewReader([]byte{2, 0, 0, 0, 'h', 'i', 9})
	n, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	s, err := r.Next(int(n))
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(s) != "hi" {
		t.Errorf("got %q, want %q", s, "hi")
	}
	if r.Pos() != 6 || r.Remaining() != 1 || r.EOF() {
		t.Errorf("pos=%d remaining=%d eof=%v", r.Pos(), r.Remaining(), r.EOF())
	}
	if b, err := r.ReadByte(); err != nil || b != 9 {
		t.Fatalf("ReadByte = %d, %v", b, err)
	}
	if !r.EOF() {
		t.Error("expected EOF")
	}
}

func TestNextCapsCapacity(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	b, err := NewReader(data).Next(2)
	if err != nil {
		t.Fatal(err)
	}
	b = append(b, 0xff)
	if data[2] != 3 {
		t.Error("append through a returned slice overwrote the input")
	}
	_ = b
}
