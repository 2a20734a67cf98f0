package binser

import (
	"encoding/binary"
	"fmt"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/acolita/hashwire/pkg/hash"
)

// source is the input of a decoder: a wire.Reader over contiguous bytes or
// a BufferSet cursor.
type source interface {
	Next(n int) ([]byte, error)
	Remaining() int
}

// decoder reads one record.
type decoder struct {
	reg      *Registry
	src      source
	aliased  bool
	depth    int
	maxDepth int
}

// sub returns a decoder over body with the same settings.
func (d *decoder) sub(body []byte) *decoder {
	return &decoder{reg: d.reg, src: wire.NewReader(body), aliased: d.aliased, depth: d.depth, maxDepth: d.maxDepth}
}

func (d *decoder) next(n int) ([]byte, error) {
	b, err := d.src.Next(n)
	if err != nil {
		return nil, fmt.Errorf("%w: need %d bytes, %d remain", ErrTruncated, n, d.src.Remaining())
	}
	return b, nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// count reads an element count and checks that the remaining input can
// hold that many elements of at least minSize bytes each.
func (d *decoder) count(minSize int) (int, error) {
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(d.src.Remaining()) {
		return 0, fmt.Errorf("%w: count %d of %d-byte items, %d bytes remain", ErrTruncated, n, minSize, d.src.Remaining())
	}
	return int(n), nil
}

func (d *decoder) string() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	b, err := d.next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) shortString() (string, error) {
	n, err := d.u8()
	if err != nil {
		return "", err
	}
	b, err := d.next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// zero reads the u32 placeholder of a NONE value.
func (d *decoder) zero() error {
	n, err := d.u32()
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("%w: NONE value carries %d", ErrInconsistent, n)
	}
	return nil
}

// payload reads n bytes into a Buffer. Unless payloads are aliased the
// bytes are copied out of the input.
func (d *decoder) payload(n int) (*hash.Buffer, error) {
	b, err := d.next(n)
	if err != nil {
		return nil, err
	}
	if d.aliased {
		return hash.NewBuffer(b), nil
	}
	return hash.CopyBuffer(b), nil
}

// readHash decodes a node count and the nodes into h.
func (d *decoder) readHash(h *hash.Hash) error {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > d.maxDepth {
		return fmt.Errorf("%w: depth %d", ErrMaxDepthExceeded, d.depth)
	}
	// key length, attribute count and type tag
	n, err := d.count(1 + 4 + 4)
	if err != nil {
		return err
	}
	for range n {
		if err := d.readNode(h); err != nil {
			return err
		}
	}
	return nil
}

type attribute struct {
	name  string
	value hash.Value
}

func (d *decoder) readNode(h *hash.Hash) error {
	key, err := d.shortString()
	if err != nil {
		return err
	}
	if _, dup := h.Node(key); dup {
		return fmt.Errorf("%w: duplicate key %q", ErrInconsistent, key)
	}
	// name length and type tag
	na, err := d.count(1 + 4)
	if err != nil {
		return err
	}
	var attrs []attribute
	if na > 0 {
		attrs = make([]attribute, na)
	}
	for i := range attrs {
		if attrs[i].name, err = d.shortString(); err != nil {
			return err
		}
		if attrs[i].value, err = d.readTyped(); err != nil {
			return fmt.Errorf("attribute %q of %q: %w", attrs[i].name, key, err)
		}
	}
	v, err := d.readTyped()
	if err != nil {
		return fmt.Errorf("%q: %w", key, err)
	}
	node := h.SetKey(key, v)
	for _, a := range attrs {
		if node.Attributes().Has(a.name) {
			return fmt.Errorf("%w: duplicate attribute %q of %q", ErrInconsistent, a.name, key)
		}
		node.Attributes().SetValue(a.name, a.value)
	}
	return nil
}

func (d *decoder) readTyped() (hash.Value, error) {
	tag, err := d.u32()
	if err != nil {
		return hash.Value{}, err
	}
	h, err := d.reg.lookup(hash.Type(tag))
	if err != nil {
		return hash.Value{}, err
	}
	return h.decode(d)
}

// readSchema decodes the root name and parameter tree of a schema.
func (d *decoder) readSchema() (*hash.Schema, error) {
	name, err := d.shortString()
	if err != nil {
		return nil, err
	}
	params := hash.New()
	if err := d.readHash(params); err != nil {
		return nil, err
	}
	return hash.SchemaFromHash(name, params), nil
}
