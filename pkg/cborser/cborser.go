// Package cborser implements a CBOR rendition of the Hash, registered as
// "Cbor".
//
// A record is one CBOR array of nodes. Every node and attribute carries its
// type tag next to the value, so the tree decodes back to the same types:
//
//	node = {1: key, 2: type, 3: [attribute...], 4: value}
//	attribute = {1: name, 2: type, 3: value}
//
// Integers, strings and booleans use the native CBOR items. Floating-point
// values are stored as their IEEE 754 bit patterns so that NaN payloads and
// negative zero survive. Fixed-width vectors and array payloads are packed
// little-endian into byte strings.
//
// Records are written with Core Deterministic Encoding, so equal trees give
// equal bytes, and concatenated records form a CBOR sequence.
package cborser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/acolita/hashwire/pkg/hash"
	"github.com/fxamacker/cbor/v2"
)

// Name is the registered name of this serializer.
const Name = "Cbor"

// ErrMalformed is returned for input that is valid CBOR but not a valid
// Hash record.
var ErrMalformed = errors.New("cborser: malformed record")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cborser: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxNestedLevels: 4096,
	}.DecMode()
	if err != nil {
		panic("cborser: CBOR decoder initialization failed: " + err.Error())
	}
}

type node struct {
	Key   string          `cbor:"1,keyasint"`
	Type  uint32          `cbor:"2,keyasint"`
	Attrs []attribute     `cbor:"3,keyasint,omitempty"`
	Value cbor.RawMessage `cbor:"4,keyasint"`
}

type attribute struct {
	Name  string          `cbor:"1,keyasint"`
	Type  uint32          `cbor:"2,keyasint"`
	Value cbor.RawMessage `cbor:"3,keyasint"`
}

type schema struct {
	Root  string `cbor:"1,keyasint"`
	Nodes []node `cbor:"2,keyasint"`
}

type ndarray struct {
	Elem      uint32   `cbor:"1,keyasint"`
	BigEndian bool     `cbor:"2,keyasint,omitempty"`
	Shape     []uint64 `cbor:"3,keyasint"`
	Data      []byte   `cbor:"4,keyasint"`
}

// Serializer encodes and decodes Hash records as CBOR.
type Serializer struct{}

// New creates a Serializer.
func New() *Serializer {
	return &Serializer{}
}

// Name returns "Cbor".
func (s *Serializer) Name() string {
	return Name
}

// Save returns the record of h.
func (s *Serializer) Save(h *hash.Hash) ([]byte, error) {
	nodes, err := encodeHash(h)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(nodes)
}

// Save2 appends the record of h to *dst.
func (s *Serializer) Save2(h *hash.Hash, dst *[]byte) error {
	data, err := s.Save(h)
	if err != nil {
		return err
	}
	*dst = append(*dst, data...)
	return nil
}

// Load clears h and decodes the first record of data into it, returning the
// number of bytes consumed.
func (s *Serializer) Load(h *hash.Hash, data []byte) (int, error) {
	h.Clear()
	var nodes []node
	rest, err := decMode.UnmarshalFirst(data, &nodes)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := decodeHash(h, nodes); err != nil {
		return 0, err
	}
	return len(data) - len(rest), nil
}

// LoadLastFromSequence decodes the last record of a CBOR sequence into h.
func (s *Serializer) LoadLastFromSequence(h *hash.Hash, data []byte) error {
	var last []byte
	for len(data) > 0 {
		var raw cbor.RawMessage
		rest, err := decMode.UnmarshalFirst(data, &raw)
		if errors.Is(err, io.ErrUnexpectedEOF) && last != nil {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		last, data = raw, rest
	}
	if last == nil {
		return fmt.Errorf("%w: empty sequence", ErrMalformed)
	}
	_, err := s.Load(h, last)
	return err
}

func encodeHash(h *hash.Hash) ([]node, error) {
	nodes := make([]node, 0, h.Len())
	for n := range h.Nodes() {
		out := node{Key: n.Key(), Type: uint32(n.Type())}
		for name, v := range n.Attributes().All() {
			raw, err := encodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("attribute %q of %q: %w", name, n.Key(), err)
			}
			out.Attrs = append(out.Attrs, attribute{Name: name, Type: uint32(v.Type()), Value: raw})
		}
		raw, err := encodeValue(n.Value())
		if err != nil {
			return nil, fmt.Errorf("%q: %w", n.Key(), err)
		}
		out.Value = raw
		nodes = append(nodes, out)
	}
	return nodes, nil
}

func decodeHash(h *hash.Hash, nodes []node) error {
	for _, n := range nodes {
		if _, dup := h.Node(n.Key); dup {
			return fmt.Errorf("%w: duplicate key %q", ErrMalformed, n.Key)
		}
		v, err := decodeValue(hash.Type(n.Type), n.Value)
		if err != nil {
			return fmt.Errorf("%q: %w", n.Key, err)
		}
		attrs := h.SetKey(n.Key, v).Attributes()
		for _, a := range n.Attrs {
			av, err := decodeValue(hash.Type(a.Type), a.Value)
			if err != nil {
				return fmt.Errorf("attribute %q of %q: %w", a.Name, n.Key, err)
			}
			if attrs.Has(a.Name) {
				return fmt.Errorf("%w: duplicate attribute %q of %q", ErrMalformed, a.Name, n.Key)
			}
			attrs.SetValue(a.Name, av)
		}
	}
	return nil
}

func encodeValue(v hash.Value) (cbor.RawMessage, error) {
	var item any
	switch d := v.Interface().(type) {
	case float32:
		item = math.Float32bits(d)
	case float64:
		item = math.Float64bits(d)
	case complex64:
		item = [2]uint32{math.Float32bits(real(d)), math.Float32bits(imag(d))}
	case complex128:
		item = [2]uint64{math.Float64bits(real(d)), math.Float64bits(imag(d))}
	case *hash.Hash:
		nodes, err := encodeHash(d)
		if err != nil {
			return nil, err
		}
		item = nodes
	case []*hash.Hash:
		list := make([][]node, len(d))
		for i, sub := range d {
			nodes, err := encodeHash(sub)
			if err != nil {
				return nil, err
			}
			list[i] = nodes
		}
		item = list
	case *hash.Schema:
		nodes, err := encodeHash(d.Parameters())
		if err != nil {
			return nil, err
		}
		item = schema{Root: d.RootName(), Nodes: nodes}
	case hash.None:
		item = nil
	case []hash.None:
		item = len(d)
	case hash.ByteArray:
		item = d.Bytes()
	case *hash.NDArray:
		item = ndarray{Elem: uint32(d.ElementType()), BigEndian: d.BigEndian(), Shape: d.Shape(), Data: d.Data()}
	case []string:
		item = d
	case bool, hash.Char, int8, uint8, int16, uint16, int32, uint32, int64, uint64, string:
		item = d
	default:
		if _, ok := unpackers[v.Type()]; !ok {
			return nil, fmt.Errorf("%w: %s", hash.ErrUnsupportedType, v.Type())
		}
		packed, err := binary.Append(nil, binary.LittleEndian, d)
		if err != nil {
			return nil, fmt.Errorf("packing %s: %w", v.Type(), err)
		}
		item = packed
	}
	return encMode.Marshal(item)
}

func decodeValue(t hash.Type, raw cbor.RawMessage) (hash.Value, error) {
	if unpack, ok := unpackers[t]; ok {
		var b []byte
		if err := decMode.Unmarshal(raw, &b); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return unpack(b)
	}
	switch t {
	case hash.TypeBool:
		return scalar[bool](raw)
	case hash.TypeChar:
		return scalar[hash.Char](raw)
	case hash.TypeInt8:
		return scalar[int8](raw)
	case hash.TypeUint8:
		return scalar[uint8](raw)
	case hash.TypeInt16:
		return scalar[int16](raw)
	case hash.TypeUint16:
		return scalar[uint16](raw)
	case hash.TypeInt32:
		return scalar[int32](raw)
	case hash.TypeUint32:
		return scalar[uint32](raw)
	case hash.TypeInt64:
		return scalar[int64](raw)
	case hash.TypeUint64:
		return scalar[uint64](raw)
	case hash.TypeString:
		return scalar[string](raw)
	case hash.TypeVectorString:
		return scalar[[]string](raw)
	case hash.TypeFloat:
		var bits uint32
		if err := decMode.Unmarshal(raw, &bits); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(math.Float32frombits(bits))
	case hash.TypeDouble:
		var bits uint64
		if err := decMode.Unmarshal(raw, &bits); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(math.Float64frombits(bits))
	case hash.TypeComplexFloat:
		var bits [2]uint32
		if err := decMode.Unmarshal(raw, &bits); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(complex(math.Float32frombits(bits[0]), math.Float32frombits(bits[1])))
	case hash.TypeComplexDouble:
		var bits [2]uint64
		if err := decMode.Unmarshal(raw, &bits); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(complex(math.Float64frombits(bits[0]), math.Float64frombits(bits[1])))
	case hash.TypeHash:
		var nodes []node
		if err := decMode.Unmarshal(raw, &nodes); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		h := hash.New()
		if err := decodeHash(h, nodes); err != nil {
			return hash.Value{}, err
		}
		return hash.ValueOf(h)
	case hash.TypeVectorHash:
		var list [][]node
		if err := decMode.Unmarshal(raw, &list); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		hs := make([]*hash.Hash, len(list))
		for i, nodes := range list {
			hs[i] = hash.New()
			if err := decodeHash(hs[i], nodes); err != nil {
				return hash.Value{}, err
			}
		}
		return hash.ValueOf(hs)
	case hash.TypeSchema:
		var sc schema
		if err := decMode.Unmarshal(raw, &sc); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		params := hash.New()
		if err := decodeHash(params, sc.Nodes); err != nil {
			return hash.Value{}, err
		}
		return hash.ValueOf(hash.SchemaFromHash(sc.Root, params))
	case hash.TypeNone:
		return hash.ValueOf(hash.None{})
	case hash.TypeVectorNone:
		var n uint32
		if err := decMode.Unmarshal(raw, &n); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(make([]hash.None, n))
	case hash.TypeByteArray:
		var b []byte
		if err := decMode.Unmarshal(raw, &b); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		return hash.ValueOf(hash.NewByteArray(b))
	case hash.TypeNDArray:
		var a ndarray
		if err := decMode.Unmarshal(raw, &a); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
		}
		arr, err := hash.NewNDArray(hash.Type(a.Elem), a.Shape, hash.NewBuffer(a.Data), a.BigEndian)
		if err != nil {
			return hash.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return hash.ValueOf(arr)
	default:
		return hash.Value{}, fmt.Errorf("%w: unknown type %d", ErrMalformed, uint32(t))
	}
}

func scalar[T any](raw cbor.RawMessage) (hash.Value, error) {
	var x T
	if err := decMode.Unmarshal(raw, &x); err != nil {
		return hash.Value{}, fmt.Errorf("%w: %T: %v", ErrMalformed, x, err)
	}
	return hash.ValueOf(x)
}

var unpackers = map[hash.Type]func([]byte) (hash.Value, error){
	hash.TypeVectorBool:          unpack[[]bool],
	hash.TypeVectorChar:          unpack[hash.Chars],
	hash.TypeVectorInt8:          unpack[[]int8],
	hash.TypeVectorUint8:         unpack[[]uint8],
	hash.TypeVectorInt16:         unpack[[]int16],
	hash.TypeVectorUint16:        unpack[[]uint16],
	hash.TypeVectorInt32:         unpack[[]int32],
	hash.TypeVectorUint32:        unpack[[]uint32],
	hash.TypeVectorInt64:         unpack[[]int64],
	hash.TypeVectorUint64:        unpack[[]uint64],
	hash.TypeVectorFloat:         unpack[[]float32],
	hash.TypeVectorDouble:        unpack[[]float64],
	hash.TypeVectorComplexFloat:  unpack[[]complex64],
	hash.TypeVectorComplexDouble: unpack[[]complex128],
}

func unpack[S ~[]E, E any](b []byte) (hash.Value, error) {
	var zero E
	size := binary.Size(zero)
	if size <= 0 || len(b)%size != 0 {
		return hash.Value{}, fmt.Errorf("%w: %d bytes do not hold %T elements", ErrMalformed, len(b), zero)
	}
	xs := make(S, len(b)/size)
	if len(xs) > 0 {
		if _, err := binary.Decode(b, binary.LittleEndian, []E(xs)); err != nil {
			return hash.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return hash.ValueOf(xs)
}
