package hash

import (
	"bytes"
	"math"
	"slices"
)

// Similar reports whether a and b have the same shape: the same number of
// nodes at every level with the same types in the same order. Keys,
// values and attributes are ignored.
func Similar(a, b *Hash) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, na := range a.nodes {
		nb := b.nodes[i]
		if na.value.typ != nb.value.typ {
			return false
		}
		switch da := na.value.data.(type) {
		case *Hash:
			if !Similar(da, nb.value.data.(*Hash)) {
				return false
			}
		case []*Hash:
			db := nb.value.data.([]*Hash)
			if len(da) != len(db) {
				return false
			}
			for j := range da {
				if !Similar(da[j], db[j]) {
					return false
				}
			}
		}
	}
	return true
}

// FullyEquals reports whether a and b hold the same keys, values and
// attributes. Floating-point values compare by bit pattern, so NaN equals
// an identical NaN and 0 differs from -0. When orderMatters is false nodes
// and attributes are matched by name instead of position.
func FullyEquals(a, b *Hash, orderMatters bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, na := range a.nodes {
		var nb *Node
		if orderMatters {
			nb = b.nodes[i]
			if na.key != nb.key {
				return false
			}
		} else {
			var ok bool
			if nb, ok = b.Node(na.key); !ok {
				return false
			}
		}
		if !attributesEqual(&na.attrs, &nb.attrs, orderMatters) {
			return false
		}
		if !valueEqual(na.value, nb.value, orderMatters) {
			return false
		}
	}
	return true
}

// Equal reports whether v and w have the same type and bit-identical
// contents.
func Equal(v, w Value) bool {
	return valueEqual(v, w, true)
}

func attributesEqual(a, b *Attributes, orderMatters bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, attr := range a.list {
		var other Value
		if orderMatters {
			if b.list[i].name != attr.name {
				return false
			}
			other = b.list[i].value
		} else {
			var ok bool
			if other, ok = b.Get(attr.name); !ok {
				return false
			}
		}
		if !valueEqual(attr.value, other, orderMatters) {
			return false
		}
	}
	return true
}

func valueEqual(v, w Value, orderMatters bool) bool {
	if v.typ != w.typ {
		return false
	}
	switch a := v.data.(type) {
	case float32:
		return math.Float32bits(a) == math.Float32bits(w.data.(float32))
	case float64:
		return math.Float64bits(a) == math.Float64bits(w.data.(float64))
	case complex64:
		return complex64Equal(a, w.data.(complex64))
	case complex128:
		return complex128Equal(a, w.data.(complex128))
	case []float32:
		return slices.EqualFunc(a, w.data.([]float32), func(x, y float32) bool {
			return math.Float32bits(x) == math.Float32bits(y)
		})
	case []float64:
		return slices.EqualFunc(a, w.data.([]float64), func(x, y float64) bool {
			return math.Float64bits(x) == math.Float64bits(y)
		})
	case []complex64:
		return slices.EqualFunc(a, w.data.([]complex64), complex64Equal)
	case []complex128:
		return slices.EqualFunc(a, w.data.([]complex128), complex128Equal)
	case []bool:
		return slices.Equal(a, w.data.([]bool))
	case Chars:
		return bytes.Equal(a, w.data.(Chars))
	case []int8:
		return slices.Equal(a, w.data.([]int8))
	case []uint8:
		return bytes.Equal(a, w.data.([]uint8))
	case []int16:
		return slices.Equal(a, w.data.([]int16))
	case []uint16:
		return slices.Equal(a, w.data.([]uint16))
	case []int32:
		return slices.Equal(a, w.data.([]int32))
	case []uint32:
		return slices.Equal(a, w.data.([]uint32))
	case []int64:
		return slices.Equal(a, w.data.([]int64))
	case []uint64:
		return slices.Equal(a, w.data.([]uint64))
	case []string:
		return slices.Equal(a, w.data.([]string))
	case []None:
		return len(a) == len(w.data.([]None))
	case *Hash:
		return FullyEquals(a, w.data.(*Hash), orderMatters)
	case []*Hash:
		b := w.data.([]*Hash)
		return slices.EqualFunc(a, b, func(x, y *Hash) bool { return FullyEquals(x, y, orderMatters) })
	case *Schema:
		b := w.data.(*Schema)
		return a.rootName == b.rootName && FullyEquals(a.params, b.params, orderMatters)
	case ByteArray:
		return bytes.Equal(a.Bytes(), w.data.(ByteArray).Bytes())
	case *NDArray:
		b := w.data.(*NDArray)
		return a.elem == b.elem && a.bigEndian == b.bigEndian &&
			slices.Equal(a.shape, b.shape) && bytes.Equal(a.Data(), b.Data())
	default:
		return v.data == w.data
	}
}

func complex64Equal(x, y complex64) bool {
	return math.Float32bits(real(x)) == math.Float32bits(real(y)) &&
		math.Float32bits(imag(x)) == math.Float32bits(imag(y))
}

func complex128Equal(x, y complex128) bool {
	return math.Float64bits(real(x)) == math.Float64bits(real(y)) &&
		math.Float64bits(imag(x)) == math.Float64bits(imag(y))
}
