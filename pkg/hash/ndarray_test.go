package hash

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNDArrayOf(t *testing.T) {
	a, err := NDArrayOf([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("NDArrayOf failed: %v", err)
	}
	if a.ElementType() != TypeInt32 {
		t.Errorf("ElementType = %s", a.ElementType())
	}
	if !cmp.Equal(a.Shape(), []uint64{2, 3}) {
		t.Errorf("Shape = %v", a.Shape())
	}
	if a.Size() != 6 || a.ByteSize() != 24 || a.ItemSize() != 4 {
		t.Errorf("Size=%d ByteSize=%d ItemSize=%d", a.Size(), a.ByteSize(), a.ItemSize())
	}
	if a.Data()[4] != 2 {
		t.Errorf("payload not little-endian: %v", a.Data()[:8])
	}

	got, err := NDArrayValues[int32](a)
	if err != nil {
		t.Fatalf("NDArrayValues failed: %v", err)
	}
	if diff := cmp.Diff([]int32{1, 2, 3, 4, 5, 6}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if _, err := NDArrayValues[float32](a); !errors.Is(err, ErrCast) {
		t.Errorf("wrong element type: got %v, want ErrCast", err)
	}
}

func TestNDArrayShapeMismatch(t *testing.T) {
	if _, err := NDArrayOf([]float64{1, 2, 3}, 2, 2); err == nil {
		t.Error("expected error for shape mismatch")
	}
	if _, err := NewNDArray(TypeString, nil, NewBuffer(nil), false); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("STRING element: got %v, want ErrUnsupportedType", err)
	}
	if _, err := NewNDArray(TypeUint8, []uint64{1 << 32, 1 << 32}, NewBuffer(nil), false); err == nil {
		t.Error("expected error for shape whose byte size overflows")
	}
	if _, err := NewNDArray(TypeInt64, []uint64{1 << 61}, NewBuffer(nil), false); err == nil {
		t.Error("expected error for extent times item size overflowing")
	}
}

func TestNDArrayEmpty(t *testing.T) {
	a, err := NDArrayOf([]float64{}, 0, 4)
	if err != nil {
		t.Fatalf("NDArrayOf failed: %v", err)
	}
	if a.Size() != 0 || a.ByteSize() != 0 {
		t.Errorf("Size=%d ByteSize=%d", a.Size(), a.ByteSize())
	}
}

func TestNDArrayBigEndianValues(t *testing.T) {
	a, err := NewNDArray(TypeUint16, nil, NewBuffer([]byte{0x01, 0x02}), true)
	if err != nil {
		t.Fatalf("NewNDArray failed: %v", err)
	}
	got, err := NDArrayValues[uint16](a)
	if err != nil {
		t.Fatalf("NDArrayValues failed: %v", err)
	}
	if got[0] != 0x0102 {
		t.Errorf("got %#x, want 0x102", got[0])
	}
}

func TestBufferLeaseForcesCopyOnWrite(t *testing.T) {
	a, err := NDArrayOf([]uint8{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	leased, release := a.Buffer().Lease()

	a.MutableData()[0] = 9
	if leased[0] != 1 {
		t.Error("write changed leased bytes")
	}
	release()
	release()

	before := a.Buffer()
	a.MutableData()[1] = 7
	if a.Buffer() != before {
		t.Error("unshared buffer was copied")
	}
}

func TestByteArray(t *testing.T) {
	var zero ByteArray
	if zero.Len() != 0 || zero.Bytes() != nil {
		t.Error("zero ByteArray not empty")
	}
	b := NewByteArray([]byte("abc"))
	if string(b.Bytes()) != "abc" || b.Len() != 3 {
		t.Errorf("got %q", b.Bytes())
	}
}
