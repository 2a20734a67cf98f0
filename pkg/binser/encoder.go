package binser

import (
	"fmt"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/acolita/hashwire/pkg/bufferset"
	"github.com/acolita/hashwire/pkg/hash"
)

// MaxKeyLength is the longest key or attribute name that can be encoded.
const MaxKeyLength = 255

// chunkSize is the initial capacity of a header segment written into a
// BufferSet.
const chunkSize = 1024

// encoder writes one record. Headers always go to w; payloads go either to
// w (byte sink) or, when set is non-nil, into their own BufferSet segment.
type encoder struct {
	reg      *Registry
	w        *wire.Writer
	set      *bufferset.BufferSet
	depth    int
	maxDepth int
}

// sub returns an encoder writing to a fresh byte buffer with the same
// settings.
func (e *encoder) sub() *encoder {
	return &encoder{reg: e.reg, w: wire.NewWriter(256), depth: e.depth, maxDepth: e.maxDepth}
}

func (e *encoder) writeHash(h *hash.Hash) error {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.maxDepth {
		return fmt.Errorf("%w: depth %d", ErrMaxDepthExceeded, e.depth)
	}
	e.w.WriteUint32(uint32(h.Len()))
	for n := range h.Nodes() {
		if err := e.writeNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeNode(n *hash.Node) error {
	if err := writeKey(e.w, n.Key()); err != nil {
		return err
	}
	attrs := n.Attributes()
	e.w.WriteUint32(uint32(attrs.Len()))
	for name, v := range attrs.All() {
		if err := writeKey(e.w, name); err != nil {
			return fmt.Errorf("attribute of %q: %w", n.Key(), err)
		}
		if err := e.writeTyped(v); err != nil {
			return err
		}
	}
	return e.writeTyped(n.Value())
}

func writeKey(w *wire.Writer, key string) error {
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes (max %d) in %.32q", ErrKeyTooLong, len(key), MaxKeyLength, key)
	}
	w.WriteShortString(key)
	return nil
}

func (e *encoder) writeTyped(v hash.Value) error {
	h, err := e.reg.lookup(v.Type())
	if err != nil {
		return err
	}
	e.w.WriteUint32(uint32(v.Type()))
	return h.encode(e, v)
}

// payload writes the bytes of a shared buffer. In a BufferSet the pending
// header bytes are closed off as an owned segment and the payload becomes
// its own segment, borrowed or copied depending on the BufferSet mode.
func (e *encoder) payload(b *hash.Buffer) {
	if e.set == nil {
		e.w.WriteBytes(b.Bytes())
		return
	}
	e.flush()
	e.set.AppendBorrowed(bufferset.Lease(b))
}

// flush moves pending header bytes into the BufferSet.
func (e *encoder) flush() {
	if e.set != nil && e.w.Len() > 0 {
		e.set.Adopt(e.w.Detach(chunkSize))
	}
}

// schema returns the body of a SCHEMA value: the root name followed by the
// parameter tree.
func (e *encoder) schema(s *hash.Schema) ([]byte, error) {
	if err := writeKey(e.w, s.RootName()); err != nil {
		return nil, fmt.Errorf("schema root name: %w", err)
	}
	if err := e.writeHash(s.Parameters()); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}
