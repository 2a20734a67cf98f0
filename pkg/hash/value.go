package hash

import (
	"fmt"
	"slices"
)

// Char is a single character value (CHAR). A plain byte is UINT8.
type Char byte

// Chars is a character vector (VECTOR_CHAR). A plain []byte is VECTOR_UINT8.
type Chars []byte

// None is the empty value (NONE).
type None struct{}

// Value is a typed value stored in a Hash node or attribute.
// Use ValueOf to build one from a Go value and As to extract it.
//
// The Go representation of each Type is fixed:
//
//	BOOL bool              VECTOR_BOOL []bool
//	CHAR Char              VECTOR_CHAR Chars
//	INT8..UINT64 int8..uint64, and their slices
//	FLOAT float32          DOUBLE float64
//	COMPLEX_FLOAT complex64 COMPLEX_DOUBLE complex128
//	STRING string          VECTOR_STRING []string
//	HASH *Hash             VECTOR_HASH []*Hash
//	SCHEMA *Schema         NONE None, VECTOR_NONE []None
//	BYTE_ARRAY ByteArray   NDARRAY *NDArray
type Value struct {
	typ  Type
	data any
}

// ValueOf wraps x in a Value. Besides the canonical representations listed
// on Value, it accepts int and uint (stored as INT64 and UINT64), []int and
// []uint, []Hash, nil (NONE) and an existing Value.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case nil:
		return Value{typ: TypeNone, data: None{}}, nil
	case None:
		return Value{typ: TypeNone, data: v}, nil
	case []None:
		return Value{typ: TypeVectorNone, data: v}, nil
	case bool:
		return Value{typ: TypeBool, data: v}, nil
	case []bool:
		return Value{typ: TypeVectorBool, data: v}, nil
	case Char:
		return Value{typ: TypeChar, data: v}, nil
	case Chars:
		return Value{typ: TypeVectorChar, data: v}, nil
	case int8:
		return Value{typ: TypeInt8, data: v}, nil
	case []int8:
		return Value{typ: TypeVectorInt8, data: v}, nil
	case uint8:
		return Value{typ: TypeUint8, data: v}, nil
	case []uint8:
		return Value{typ: TypeVectorUint8, data: v}, nil
	case int16:
		return Value{typ: TypeInt16, data: v}, nil
	case []int16:
		return Value{typ: TypeVectorInt16, data: v}, nil
	case uint16:
		return Value{typ: TypeUint16, data: v}, nil
	case []uint16:
		return Value{typ: TypeVectorUint16, data: v}, nil
	case int32:
		return Value{typ: TypeInt32, data: v}, nil
	case []int32:
		return Value{typ: TypeVectorInt32, data: v}, nil
	case uint32:
		return Value{typ: TypeUint32, data: v}, nil
	case []uint32:
		return Value{typ: TypeVectorUint32, data: v}, nil
	case int64:
		return Value{typ: TypeInt64, data: v}, nil
	case []int64:
		return Value{typ: TypeVectorInt64, data: v}, nil
	case int:
		return Value{typ: TypeInt64, data: int64(v)}, nil
	case []int:
		out := make([]int64, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return Value{typ: TypeVectorInt64, data: out}, nil
	case uint64:
		return Value{typ: TypeUint64, data: v}, nil
	case []uint64:
		return Value{typ: TypeVectorUint64, data: v}, nil
	case uint:
		return Value{typ: TypeUint64, data: uint64(v)}, nil
	case []uint:
		out := make([]uint64, len(v))
		for i, n := range v {
			out[i] = uint64(n)
		}
		return Value{typ: TypeVectorUint64, data: out}, nil
	case float32:
		return Value{typ: TypeFloat, data: v}, nil
	case []float32:
		return Value{typ: TypeVectorFloat, data: v}, nil
	case float64:
		return Value{typ: TypeDouble, data: v}, nil
	case []float64:
		return Value{typ: TypeVectorDouble, data: v}, nil
	case complex64:
		return Value{typ: TypeComplexFloat, data: v}, nil
	case []complex64:
		return Value{typ: TypeVectorComplexFloat, data: v}, nil
	case complex128:
		return Value{typ: TypeComplexDouble, data: v}, nil
	case []complex128:
		return Value{typ: TypeVectorComplexDouble, data: v}, nil
	case string:
		return Value{typ: TypeString, data: v}, nil
	case []string:
		return Value{typ: TypeVectorString, data: v}, nil
	case *Hash:
		if v == nil {
			v = New()
		}
		return Value{typ: TypeHash, data: v}, nil
	case []*Hash:
		out := make([]*Hash, len(v))
		for i, h := range v {
			if h == nil {
				h = New()
			}
			out[i] = h
		}
		return Value{typ: TypeVectorHash, data: out}, nil
	case []Hash:
		out := make([]*Hash, len(v))
		for i := range v {
			out[i] = v[i].Clone()
		}
		return Value{typ: TypeVectorHash, data: out}, nil
	case *Schema:
		if v == nil {
			v = NewSchema("")
		}
		return Value{typ: TypeSchema, data: v}, nil
	case ByteArray:
		if v.data == nil {
			v.data = NewBuffer(nil)
		}
		return Value{typ: TypeByteArray, data: v}, nil
	case *NDArray:
		if v == nil {
			return Value{}, fmt.Errorf("%w: nil *NDArray", ErrUnsupportedType)
		}
		return Value{typ: TypeNDArray, data: v}, nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
}

// MustValueOf is like ValueOf but panics if x has no Type.
func MustValueOf(x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Type returns the type tag of v.
func (v Value) Type() Type {
	return v.typ
}

// Interface returns the Go representation of v.
func (v Value) Interface() any {
	return v.data
}

// IsHash reports whether v holds a nested Hash.
func (v Value) IsHash() bool {
	return v.typ == TypeHash
}

// Hash returns the nested tree held by v, or nil if v is not a HASH.
func (v Value) Hash() *Hash {
	h, _ := v.data.(*Hash)
	return h
}

// As returns the value held by v as T. It fails with ErrCast when T is not
// the Go representation of v's Type; no numeric conversion is attempted.
func As[T any](v Value) (T, error) {
	t, ok := v.data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s is not %T", ErrCast, v.typ, zero)
	}
	return t, nil
}

// Clone returns a deep copy of v. Nested trees and slices are copied;
// NDArray and ByteArray payloads are shared.
func (v Value) Clone() Value {
	switch d := v.data.(type) {
	case *Hash:
		return Value{typ: v.typ, data: d.Clone()}
	case []*Hash:
		out := make([]*Hash, len(d))
		for i, h := range d {
			out[i] = h.Clone()
		}
		return Value{typ: v.typ, data: out}
	case *Schema:
		return Value{typ: v.typ, data: d.Clone()}
	case *NDArray:
		return Value{typ: v.typ, data: d.Clone()}
	case ByteArray:
		return Value{typ: v.typ, data: ByteArray{data: d.data.Share()}}
	case []bool:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case Chars:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []int8:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []uint8:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []int16:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []uint16:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []int32:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []uint32:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []int64:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []uint64:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []float32:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []float64:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []complex64:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []complex128:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []string:
		return Value{typ: v.typ, data: slices.Clone(d)}
	case []None:
		return Value{typ: v.typ, data: slices.Clone(d)}
	default:
		return v
	}
}

// Len returns the element count of a vector value, the byte length of a
// STRING or BYTE_ARRAY, the node count of a HASH, and 1 otherwise.
func (v Value) Len() int {
	switch d := v.data.(type) {
	case string:
		return len(d)
	case *Hash:
		return d.Len()
	case ByteArray:
		return d.Len()
	case *NDArray:
		return d.Size()
	case []bool:
		return len(d)
	case Chars:
		return len(d)
	case []int8:
		return len(d)
	case []uint8:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	case []int64:
		return len(d)
	case []uint64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []complex64:
		return len(d)
	case []complex128:
		return len(d)
	case []string:
		return len(d)
	case []*Hash:
		return len(d)
	case []None:
		return len(d)
	default:
		return 1
	}
}
