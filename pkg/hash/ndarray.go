package hash

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"slices"
)

// Element is the set of Go types that can back an NDArray.
type Element interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | complex64 | complex128
}

// NDArray is a shaped, typed, contiguous block of numeric data. The payload
// lives in a shared Buffer, so copying an NDArray (or a Hash holding one)
// does not copy the bytes.
type NDArray struct {
	elem      Type
	shape     []uint64
	bigEndian bool
	data      *Buffer
}

// NewNDArray wraps raw element bytes. The buffer length must equal the
// product of the shape times the element size. An empty shape describes a
// flat array of len(data)/itemSize elements.
func NewNDArray(elem Type, shape []uint64, data *Buffer, bigEndian bool) (*NDArray, error) {
	size := elem.ItemSize()
	if size == 0 || elem == TypeNone {
		return nil, fmt.Errorf("%w: %s cannot be an NDArray element", ErrUnsupportedType, elem)
	}
	if data == nil {
		data = NewBuffer(nil)
	}
	if len(shape) == 0 {
		if data.Len()%size != 0 {
			return nil, fmt.Errorf("hash: NDArray payload of %d bytes is not a multiple of %d", data.Len(), size)
		}
		shape = []uint64{uint64(data.Len() / size)}
	}
	want := uint64(size)
	for i, d := range shape {
		hi, lo := bits.Mul64(want, d)
		if hi != 0 {
			return nil, fmt.Errorf("hash: NDArray shape %v overflows", shape[:i+1])
		}
		want = lo
	}
	if want != uint64(data.Len()) {
		return nil, fmt.Errorf("hash: NDArray shape %v of %s needs %d bytes, have %d", shape, elem, want, data.Len())
	}
	return &NDArray{elem: elem, shape: slices.Clone(shape), bigEndian: bigEndian, data: data}, nil
}

// NDArrayOf builds a little-endian NDArray from values. With no shape the
// array is one-dimensional.
func NDArrayOf[T Element](values []T, shape ...uint64) (*NDArray, error) {
	elem := elementType[T]()
	data, err := binary.Append(make([]byte, 0, len(values)*elem.ItemSize()), binary.LittleEndian, values)
	if err != nil {
		return nil, fmt.Errorf("hash: encoding NDArray payload: %w", err)
	}
	return NewNDArray(elem, shape, NewBuffer(data), false)
}

// NDArrayValues decodes the payload of a into a fresh slice of T.
func NDArrayValues[T Element](a *NDArray) ([]T, error) {
	if elementType[T]() != a.elem {
		return nil, fmt.Errorf("%w: NDArray holds %s, not %T", ErrCast, a.elem, *new(T))
	}
	out := make([]T, a.Size())
	var order binary.ByteOrder = binary.LittleEndian
	if a.bigEndian {
		order = binary.BigEndian
	}
	if _, err := binary.Decode(a.data.Bytes(), order, out); err != nil {
		return nil, fmt.Errorf("hash: decoding NDArray payload: %w", err)
	}
	return out, nil
}

func elementType[T Element]() Type {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TypeBool
	case int8:
		return TypeInt8
	case int16:
		return TypeInt16
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case uint8:
		return TypeUint8
	case uint16:
		return TypeUint16
	case uint32:
		return TypeUint32
	case uint64:
		return TypeUint64
	case float32:
		return TypeFloat
	case float64:
		return TypeDouble
	case complex64:
		return TypeComplexFloat
	default:
		return TypeComplexDouble
	}
}

// ElementType returns the type of one array element.
func (a *NDArray) ElementType() Type { return a.elem }

// Shape returns a copy of the array extents.
func (a *NDArray) Shape() []uint64 { return slices.Clone(a.shape) }

// BigEndian reports whether the payload bytes are big-endian.
func (a *NDArray) BigEndian() bool { return a.bigEndian }

// ItemSize returns the byte width of one element.
func (a *NDArray) ItemSize() int { return a.elem.ItemSize() }

// ByteSize returns the payload size in bytes.
func (a *NDArray) ByteSize() int { return a.data.Len() }

// Size returns the number of elements.
func (a *NDArray) Size() int { return a.data.Len() / a.elem.ItemSize() }

// Data returns the payload bytes. The slice must be treated as read-only;
// use MutableData to write.
func (a *NDArray) Data() []byte { return a.data.Bytes() }

// Buffer returns the shared payload handle.
func (a *NDArray) Buffer() *Buffer { return a.data }

// MutableData returns payload bytes that may be written. If the payload is
// shared with another array or leased by a BufferSet, it is copied first.
func (a *NDArray) MutableData() []byte {
	a.data = a.data.writable()
	return a.data.Bytes()
}

// Clone returns an NDArray sharing a's payload.
func (a *NDArray) Clone() *NDArray {
	return &NDArray{elem: a.elem, shape: slices.Clone(a.shape), bigEndian: a.bigEndian, data: a.data.Share()}
}

func (a *NDArray) String() string {
	return fmt.Sprintf("NDArray<%s>%v", a.elem, a.shape)
}

// ByteArray is an opaque run of bytes held in a shared Buffer.
type ByteArray struct {
	data *Buffer
}

// NewByteArray wraps data without copying. The caller hands ownership of
// data to the ByteArray.
func NewByteArray(data []byte) ByteArray {
	return ByteArray{data: NewBuffer(data)}
}

// ByteArrayFromBuffer wraps an existing Buffer.
func ByteArrayFromBuffer(b *Buffer) ByteArray {
	return ByteArray{data: b}
}

// Bytes returns the payload. The slice must be treated as read-only.
func (b ByteArray) Bytes() []byte {
	if b.data == nil {
		return nil
	}
	return b.data.Bytes()
}

// Len returns the payload size in bytes.
func (b ByteArray) Len() int {
	if b.data == nil {
		return 0
	}
	return b.data.Len()
}

// Buffer returns the shared payload handle, allocating an empty one for the
// zero ByteArray.
func (b ByteArray) Buffer() *Buffer {
	if b.data == nil {
		return NewBuffer(nil)
	}
	return b.data
}
