package hash

import (
	"fmt"
	"strings"
)

// Type identifies the kind of a Value. The numeric value of each Type is
// the tag written on the wire, so these constants are protocol constants.
type Type uint32

const (
	TypeBool                Type = 0
	TypeVectorBool          Type = 1
	TypeChar                Type = 2
	TypeVectorChar          Type = 3
	TypeInt8                Type = 4
	TypeVectorInt8          Type = 5
	TypeUint8               Type = 6
	TypeVectorUint8         Type = 7
	TypeInt16               Type = 8
	TypeVectorInt16         Type = 9
	TypeUint16              Type = 10
	TypeVectorUint16        Type = 11
	TypeInt32               Type = 12
	TypeVectorInt32         Type = 13
	TypeUint32              Type = 14
	TypeVectorUint32        Type = 15
	TypeInt64               Type = 16
	TypeVectorInt64         Type = 17
	TypeUint64              Type = 18
	TypeVectorUint64        Type = 19
	TypeFloat               Type = 20
	TypeVectorFloat         Type = 21
	TypeDouble              Type = 22
	TypeVectorDouble        Type = 23
	TypeComplexFloat        Type = 24
	TypeVectorComplexFloat  Type = 25
	TypeComplexDouble       Type = 26
	TypeVectorComplexDouble Type = 27
	TypeString              Type = 28
	TypeVectorString        Type = 29
	TypeHash                Type = 30
	TypeVectorHash          Type = 31
	TypeSchema              Type = 32
	TypeNone                Type = 35
	TypeVectorNone          Type = 36
	TypeByteArray           Type = 37
	TypeNDArray             Type = 38
)

var typeNames = map[Type]string{
	TypeBool:                "BOOL",
	TypeVectorBool:          "VECTOR_BOOL",
	TypeChar:                "CHAR",
	TypeVectorChar:          "VECTOR_CHAR",
	TypeInt8:                "INT8",
	TypeVectorInt8:          "VECTOR_INT8",
	TypeUint8:               "UINT8",
	TypeVectorUint8:         "VECTOR_UINT8",
	TypeInt16:               "INT16",
	TypeVectorInt16:         "VECTOR_INT16",
	TypeUint16:              "UINT16",
	TypeVectorUint16:        "VECTOR_UINT16",
	TypeInt32:               "INT32",
	TypeVectorInt32:         "VECTOR_INT32",
	TypeUint32:              "UINT32",
	TypeVectorUint32:        "VECTOR_UINT32",
	TypeInt64:               "INT64",
	TypeVectorInt64:         "VECTOR_INT64",
	TypeUint64:              "UINT64",
	TypeVectorUint64:        "VECTOR_UINT64",
	TypeFloat:               "FLOAT",
	TypeVectorFloat:         "VECTOR_FLOAT",
	TypeDouble:              "DOUBLE",
	TypeVectorDouble:        "VECTOR_DOUBLE",
	TypeComplexFloat:        "COMPLEX_FLOAT",
	TypeVectorComplexFloat:  "VECTOR_COMPLEX_FLOAT",
	TypeComplexDouble:       "COMPLEX_DOUBLE",
	TypeVectorComplexDouble: "VECTOR_COMPLEX_DOUBLE",
	TypeString:              "STRING",
	TypeVectorString:        "VECTOR_STRING",
	TypeHash:                "HASH",
	TypeVectorHash:          "VECTOR_HASH",
	TypeSchema:              "SCHEMA",
	TypeNone:                "NONE",
	TypeVectorNone:          "VECTOR_NONE",
	TypeByteArray:           "BYTE_ARRAY",
	TypeNDArray:             "NDARRAY",
}

// Types returns every defined Type in ascending tag order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := Type(0); t <= TypeNDArray; t++ {
		if _, ok := typeNames[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Valid reports whether t is one of the defined types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// String returns the type name, e.g. "VECTOR_INT32".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// ParseType returns the Type named by name. Matching is case-insensitive.
func ParseType(name string) (Type, error) {
	upper := strings.ToUpper(name)
	for t, n := range typeNames {
		if n == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type name %q", ErrUnsupportedType, name)
}

// IsVector reports whether t is the vector variant of a scalar type.
func (t Type) IsVector() bool {
	_, ok := t.Element()
	return ok
}

// Element returns the scalar type of a vector type.
func (t Type) Element() (Type, bool) {
	switch {
	case t <= TypeVectorHash && t%2 == 1:
		return t - 1, true
	case t == TypeVectorNone:
		return TypeNone, true
	default:
		return 0, false
	}
}

// ItemSize returns the byte width of one element of a fixed-width scalar
// type, or 0 for variable-width and container types.
func (t Type) ItemSize() int {
	switch t {
	case TypeBool, TypeChar, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat:
		return 4
	case TypeInt64, TypeUint64, TypeDouble, TypeComplexFloat:
		return 8
	case TypeComplexDouble:
		return 16
	default:
		return 0
	}
}
