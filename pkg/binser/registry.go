package binser

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/acolita/hashwire/pkg/hash"
)

type handler struct {
	encode func(e *encoder, v hash.Value) error
	decode func(d *decoder) (hash.Value, error)
}

// Registry maps every type tag to its encode and decode routine. Build one
// with NewRegistry and share it between serializers; it is read-only after
// construction.
type Registry struct {
	handlers map[hash.Type]handler
}

// NewRegistry builds the dispatch table for every hash.Type. It panics if a
// type is left without a handler.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[hash.Type]handler{
		hash.TypeBool:                fixedScalar[bool](hash.TypeBool),
		hash.TypeVectorBool:          fixedVector[[]bool](hash.TypeVectorBool),
		hash.TypeChar:                fixedScalar[hash.Char](hash.TypeChar),
		hash.TypeVectorChar:          fixedVector[hash.Chars](hash.TypeVectorChar),
		hash.TypeInt8:                fixedScalar[int8](hash.TypeInt8),
		hash.TypeVectorInt8:          fixedVector[[]int8](hash.TypeVectorInt8),
		hash.TypeUint8:               fixedScalar[uint8](hash.TypeUint8),
		hash.TypeVectorUint8:         fixedVector[[]uint8](hash.TypeVectorUint8),
		hash.TypeInt16:               fixedScalar[int16](hash.TypeInt16),
		hash.TypeVectorInt16:         fixedVector[[]int16](hash.TypeVectorInt16),
		hash.TypeUint16:              fixedScalar[uint16](hash.TypeUint16),
		hash.TypeVectorUint16:        fixedVector[[]uint16](hash.TypeVectorUint16),
		hash.TypeInt32:               fixedScalar[int32](hash.TypeInt32),
		hash.TypeVectorInt32:         fixedVector[[]int32](hash.TypeVectorInt32),
		hash.TypeUint32:              fixedScalar[uint32](hash.TypeUint32),
		hash.TypeVectorUint32:        fixedVector[[]uint32](hash.TypeVectorUint32),
		hash.TypeInt64:               fixedScalar[int64](hash.TypeInt64),
		hash.TypeVectorInt64:         fixedVector[[]int64](hash.TypeVectorInt64),
		hash.TypeUint64:              fixedScalar[uint64](hash.TypeUint64),
		hash.TypeVectorUint64:        fixedVector[[]uint64](hash.TypeVectorUint64),
		hash.TypeFloat:               fixedScalar[float32](hash.TypeFloat),
		hash.TypeVectorFloat:         fixedVector[[]float32](hash.TypeVectorFloat),
		hash.TypeDouble:              fixedScalar[float64](hash.TypeDouble),
		hash.TypeVectorDouble:        fixedVector[[]float64](hash.TypeVectorDouble),
		hash.TypeComplexFloat:        fixedScalar[complex64](hash.TypeComplexFloat),
		hash.TypeVectorComplexFloat:  fixedVector[[]complex64](hash.TypeVectorComplexFloat),
		hash.TypeComplexDouble:       fixedScalar[complex128](hash.TypeComplexDouble),
		hash.TypeVectorComplexDouble: fixedVector[[]complex128](hash.TypeVectorComplexDouble),
		hash.TypeString:              {encode: encodeString, decode: decodeString},
		hash.TypeVectorString:        {encode: encodeVectorString, decode: decodeVectorString},
		hash.TypeHash:                {encode: encodeHash, decode: decodeHash},
		hash.TypeVectorHash:          {encode: encodeVectorHash, decode: decodeVectorHash},
		hash.TypeSchema:              {encode: encodeSchema, decode: decodeSchema},
		hash.TypeNone:                {encode: encodeNone, decode: decodeNone},
		hash.TypeVectorNone:          {encode: encodeVectorNone, decode: decodeVectorNone},
		hash.TypeByteArray:           {encode: encodeByteArray, decode: decodeByteArray},
		hash.TypeNDArray:             {encode: encodeNDArray, decode: decodeNDArray},
	}}
	if err := r.check(); err != nil {
		panic(err)
	}
	return r
}

// check verifies that every defined type has a handler and no handler
// exists for an undefined tag.
func (r *Registry) check() error {
	for _, t := range hash.Types() {
		if _, ok := r.handlers[t]; !ok {
			return fmt.Errorf("binser: no handler for %s", t)
		}
	}
	if len(r.handlers) != len(hash.Types()) {
		return fmt.Errorf("binser: %d handlers for %d types", len(r.handlers), len(hash.Types()))
	}
	return nil
}

func (r *Registry) lookup(t hash.Type) (handler, error) {
	h, ok := r.handlers[t]
	if !ok {
		return handler{}, fmt.Errorf("%w: %d", ErrUnknownType, uint32(t))
	}
	return h, nil
}

func fixedScalar[T any](t hash.Type) handler {
	size := t.ItemSize()
	return handler{
		encode: func(e *encoder, v hash.Value) error {
			x, err := hash.As[T](v)
			if err != nil {
				return err
			}
			return e.w.WriteFixed(x)
		},
		decode: func(d *decoder) (hash.Value, error) {
			b, err := d.next(size)
			if err != nil {
				return hash.Value{}, err
			}
			var x T
			if _, err := binary.Decode(b, binary.LittleEndian, &x); err != nil {
				return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrInconsistent, t, err)
			}
			return hash.ValueOf(x)
		},
	}
}

func fixedVector[S ~[]E, E any](t hash.Type) handler {
	elem, _ := t.Element()
	size := elem.ItemSize()
	return handler{
		encode: func(e *encoder, v hash.Value) error {
			xs, err := hash.As[S](v)
			if err != nil {
				return err
			}
			e.w.WriteUint32(uint32(len(xs)))
			if len(xs) == 0 {
				return nil
			}
			return e.w.WriteFixed([]E(xs))
		},
		decode: func(d *decoder) (hash.Value, error) {
			n, err := d.count(size)
			if err != nil {
				return hash.Value{}, err
			}
			xs := make(S, n)
			if n > 0 {
				b, err := d.next(n * size)
				if err != nil {
					return hash.Value{}, err
				}
				if _, err := binary.Decode(b, binary.LittleEndian, []E(xs)); err != nil {
					return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrInconsistent, t, err)
				}
			}
			return hash.ValueOf(xs)
		},
	}
}

func encodeString(e *encoder, v hash.Value) error {
	s, err := hash.As[string](v)
	if err != nil {
		return err
	}
	e.w.WriteString(s)
	return nil
}

func decodeString(d *decoder) (hash.Value, error) {
	s, err := d.string()
	if err != nil {
		return hash.Value{}, err
	}
	return hash.ValueOf(s)
}

func encodeVectorString(e *encoder, v hash.Value) error {
	ss, err := hash.As[[]string](v)
	if err != nil {
		return err
	}
	e.w.WriteUint32(uint32(len(ss)))
	for _, s := range ss {
		e.w.WriteString(s)
	}
	return nil
}

func decodeVectorString(d *decoder) (hash.Value, error) {
	n, err := d.count(4)
	if err != nil {
		return hash.Value{}, err
	}
	ss := make([]string, n)
	for i := range ss {
		if ss[i], err = d.string(); err != nil {
			return hash.Value{}, err
		}
	}
	return hash.ValueOf(ss)
}

func encodeHash(e *encoder, v hash.Value) error {
	h, err := hash.As[*hash.Hash](v)
	if err != nil {
		return err
	}
	return e.writeHash(h)
}

func decodeHash(d *decoder) (hash.Value, error) {
	h := hash.New()
	if err := d.readHash(h); err != nil {
		return hash.Value{}, err
	}
	return hash.ValueOf(h)
}

func encodeVectorHash(e *encoder, v hash.Value) error {
	hs, err := hash.As[[]*hash.Hash](v)
	if err != nil {
		return err
	}
	e.w.WriteUint32(uint32(len(hs)))
	for _, h := range hs {
		if err := e.writeHash(h); err != nil {
			return err
		}
	}
	return nil
}

func decodeVectorHash(d *decoder) (hash.Value, error) {
	n, err := d.count(4)
	if err != nil {
		return hash.Value{}, err
	}
	hs := make([]*hash.Hash, n)
	for i := range hs {
		hs[i] = hash.New()
		if err := d.readHash(hs[i]); err != nil {
			return hash.Value{}, err
		}
	}
	return hash.ValueOf(hs)
}

func encodeSchema(e *encoder, v hash.Value) error {
	s, err := hash.As[*hash.Schema](v)
	if err != nil {
		return err
	}
	body, err := e.sub().schema(s)
	if err != nil {
		return err
	}
	e.w.WriteUint32(uint32(len(body)))
	e.w.WriteBytes(body)
	return nil
}

func decodeSchema(d *decoder) (hash.Value, error) {
	n, err := d.u32()
	if err != nil {
		return hash.Value{}, err
	}
	body, err := d.next(int(n))
	if err != nil {
		return hash.Value{}, err
	}
	sub := d.sub(body)
	s, err := sub.readSchema()
	if err != nil {
		return hash.Value{}, err
	}
	if rest := sub.src.Remaining(); rest != 0 {
		return hash.Value{}, fmt.Errorf("%w: %d bytes left in schema of %d", ErrInconsistent, rest, n)
	}
	return hash.ValueOf(s)
}

func encodeNone(e *encoder, v hash.Value) error {
	e.w.WriteUint32(0)
	return nil
}

func decodeNone(d *decoder) (hash.Value, error) {
	if err := d.zero(); err != nil {
		return hash.Value{}, err
	}
	return hash.ValueOf(hash.None{})
}

func encodeVectorNone(e *encoder, v hash.Value) error {
	n := v.Len()
	e.w.WriteUint32(uint32(n))
	for range n {
		e.w.WriteUint32(0)
	}
	return nil
}

func decodeVectorNone(d *decoder) (hash.Value, error) {
	n, err := d.count(4)
	if err != nil {
		return hash.Value{}, err
	}
	for range n {
		if err := d.zero(); err != nil {
			return hash.Value{}, err
		}
	}
	return hash.ValueOf(make([]hash.None, n))
}

func encodeByteArray(e *encoder, v hash.Value) error {
	b, err := hash.As[hash.ByteArray](v)
	if err != nil {
		return err
	}
	e.w.WriteUint32(uint32(b.Len()))
	e.payload(b.Buffer())
	return nil
}

func decodeByteArray(d *decoder) (hash.Value, error) {
	n, err := d.count(1)
	if err != nil {
		return hash.Value{}, err
	}
	buf, err := d.payload(n)
	if err != nil {
		return hash.Value{}, err
	}
	return hash.ValueOf(hash.ByteArrayFromBuffer(buf))
}

func encodeNDArray(e *encoder, v hash.Value) error {
	a, err := hash.As[*hash.NDArray](v)
	if err != nil {
		return err
	}
	shape := a.Shape()
	e.w.WriteUint32(uint32(a.ElementType()))
	e.w.WriteBool(a.BigEndian())
	e.w.WriteUint32(uint32(len(shape)))
	for _, dim := range shape {
		e.w.WriteUint64(dim)
	}
	e.w.WriteUint64(uint64(a.ByteSize()))
	e.payload(a.Buffer())
	return nil
}

func decodeNDArray(d *decoder) (hash.Value, error) {
	tag, err := d.u32()
	if err != nil {
		return hash.Value{}, err
	}
	elem := hash.Type(tag)
	if !elem.Valid() {
		return hash.Value{}, fmt.Errorf("%w: NDArray element %d", ErrUnknownType, tag)
	}
	size := elem.ItemSize()
	if size == 0 {
		return hash.Value{}, fmt.Errorf("%w: NDArray element %s has no fixed size", ErrInconsistent, elem)
	}
	flag, err := d.u8()
	if err != nil {
		return hash.Value{}, err
	}
	rank, err := d.count(8)
	if err != nil {
		return hash.Value{}, err
	}
	shape := make([]uint64, rank)
	want := uint64(size)
	for i := range shape {
		if shape[i], err = d.u64(); err != nil {
			return hash.Value{}, err
		}
		hi, lo := bits.Mul64(want, shape[i])
		if hi != 0 {
			return hash.Value{}, fmt.Errorf("%w: NDArray shape %v overflows", ErrInconsistent, shape[:i+1])
		}
		want = lo
	}
	length, err := d.u64()
	if err != nil {
		return hash.Value{}, err
	}
	if length != want {
		return hash.Value{}, fmt.Errorf("%w: NDArray shape %v of %s needs %d bytes, header says %d",
			ErrInconsistent, shape, elem, want, length)
	}
	if length > uint64(d.src.Remaining()) {
		return hash.Value{}, fmt.Errorf("%w: NDArray payload of %d bytes, %d remain", ErrTruncated, length, d.src.Remaining())
	}
	buf, err := d.payload(int(length))
	if err != nil {
		return hash.Value{}, err
	}
	a, err := hash.NewNDArray(elem, shape, buf, flag != 0)
	if err != nil {
		return hash.Value{}, fmt.Errorf("%w: %v", ErrInconsistent, err)
	}
	return hash.ValueOf(a)
}
