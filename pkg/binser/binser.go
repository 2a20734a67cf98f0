// Package binser implements the binary Hash codec, registered as "Bin".
//
// A record is the encoding of one Hash: a u32 node count followed by the
// nodes. Each node is written as
//
//	key_len:u8 key attr_count:u32 {name_len:u8 name tag:u32 value}* tag:u32 value
//
// All integers are little-endian and fixed width. Records carry no
// delimiter, so several records may be concatenated and read back one by
// one with the byte count returned by Load, or the newest one picked with
// LoadLastFromSequence.
//
// # Basic Usage
//
//	s := binser.New()
//	data, err := s.Save(hash.New("a.b", int32(1)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := hash.New()
//	if _, err := s.Load(h, data); err != nil {
//	    log.Fatal(err)
//	}
//
// # Buffers
//
// SaveBufferSet writes into a bufferset.BufferSet, where NDArray and
// ByteArray payloads become segments of their own. A BufferSet built with
// copyAll=false references those payloads instead of copying them; the
// payload Buffers stay leased until the BufferSet is Reset.
//
// # Destinations
//
// Save, SaveTo and SaveBufferSet always start from an empty destination.
// Save2 and AppendBufferSet append a record after existing content.
//
// A Serializer holds no mutable state and may be used from several
// goroutines as long as each call works on its own Hash and buffers.
package binser

import (
	"errors"
	"fmt"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/acolita/hashwire/pkg/bufferset"
	"github.com/acolita/hashwire/pkg/hash"
)

// Name is the registered name of this serializer.
const Name = "Bin"

// DefaultMaxDepth is the default maximum tree nesting depth.
const DefaultMaxDepth = 1000

// Serializer encodes and decodes Hash records.
type Serializer struct {
	reg      *Registry
	maxDepth int
	aliased  bool
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithMaxDepth sets the maximum nesting depth of trees (default 1000).
func WithMaxDepth(depth int) Option {
	return func(s *Serializer) {
		s.maxDepth = depth
	}
}

// WithAliasedPayloads makes decoded NDArray and ByteArray values reference
// the input bytes instead of copying them. The caller must then keep the
// input alive and unmodified for as long as the decoded tree is used.
func WithAliasedPayloads() Option {
	return func(s *Serializer) {
		s.aliased = true
	}
}

// WithRegistry makes the Serializer use r instead of building its own.
func WithRegistry(r *Registry) Option {
	return func(s *Serializer) {
		s.reg = r
	}
}

// New creates a Serializer.
func New(opts ...Option) *Serializer {
	s := &Serializer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = NewRegistry()
	}
	return s
}

// Save serializes h with a new Serializer.
func Save(h *hash.Hash) ([]byte, error) {
	return New().Save(h)
}

// Load deserializes the first record of data into h with a new Serializer.
func Load(h *hash.Hash, data []byte) (int, error) {
	return New().Load(h, data)
}

// Name returns "Bin".
func (s *Serializer) Name() string {
	return Name
}

// AliasesInput reports whether decoded payloads reference the input bytes.
func (s *Serializer) AliasesInput() bool {
	return s.aliased
}

func (s *Serializer) encoder(w *wire.Writer, set *bufferset.BufferSet) *encoder {
	return &encoder{reg: s.reg, w: w, set: set, maxDepth: s.maxDepth}
}

func (s *Serializer) decoder(src source) *decoder {
	return &decoder{reg: s.reg, src: src, aliased: s.aliased, maxDepth: s.maxDepth}
}

// Save returns the record of h in a new slice.
func (s *Serializer) Save(h *hash.Hash) ([]byte, error) {
	var out []byte
	if err := s.SaveTo(h, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTo replaces the contents of *dst with the record of h, reusing the
// capacity of *dst. On error *dst holds a partial record.
func (s *Serializer) SaveTo(h *hash.Hash, dst *[]byte) error {
	*dst = (*dst)[:0]
	return s.Save2(h, dst)
}

// Save2 appends the record of h to *dst. On error *dst holds the previous
// contents followed by a partial record.
func (s *Serializer) Save2(h *hash.Hash, dst *[]byte) error {
	w := wire.WrapWriter(*dst)
	err := s.encoder(w, nil).writeHash(h)
	*dst = w.Bytes()
	return err
}

// SaveBufferSet resets set and writes the record of h into it.
func (s *Serializer) SaveBufferSet(h *hash.Hash, set *bufferset.BufferSet) error {
	set.Reset()
	return s.AppendBufferSet(h, set)
}

// AppendBufferSet appends the record of h to set.
func (s *Serializer) AppendBufferSet(h *hash.Hash, set *bufferset.BufferSet) error {
	e := s.encoder(wire.NewWriter(chunkSize), set)
	if err := e.writeHash(h); err != nil {
		return err
	}
	e.flush()
	return nil
}

// Load clears h and decodes the first record of data into it, returning the
// number of bytes consumed. Bytes after the record are left alone, so the
// next record of a concatenation starts at data[n:]. On error h is left
// partially populated and must be discarded.
func (s *Serializer) Load(h *hash.Hash, data []byte) (int, error) {
	h.Clear()
	r := wire.NewReader(data)
	if err := s.decoder(r).readHash(h); err != nil {
		return r.Pos(), err
	}
	return r.Pos(), nil
}

// LoadBufferSet clears h and decodes the record at the read cursor of set,
// advancing the cursor past it. Call set.Rewind to read from the start
// again.
func (s *Serializer) LoadBufferSet(h *hash.Hash, set *bufferset.BufferSet) error {
	h.Clear()
	return s.decoder(set).readHash(h)
}

// LoadLastFromSequence decodes the last complete record of a concatenation
// into h. A truncated record at the end is skipped; any other decoding
// failure is returned. It fails with ErrTruncated if data holds no
// complete record.
func (s *Serializer) LoadLastFromSequence(h *hash.Hash, data []byte) error {
	last, err := s.LastRecord(data)
	if err != nil {
		return err
	}
	_, err = s.Load(h, data[last:])
	return err
}

// LastRecord returns the offset of the last complete record in data.
func (s *Serializer) LastRecord(data []byte) (int, error) {
	scan := &Serializer{reg: s.reg, maxDepth: s.maxDepth, aliased: true}
	scratch := hash.New()
	last, off, records := 0, 0, 0
	for off < len(data) {
		n, err := scan.Load(scratch, data[off:])
		if errors.Is(err, ErrTruncated) && records > 0 {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("record %d at offset %d: %w", records, off, err)
		}
		last, off = off, off+n
		records++
	}
	if records == 0 {
		return 0, fmt.Errorf("%w: no complete record in %d bytes", ErrTruncated, len(data))
	}
	return last, nil
}

// SaveSchema returns the encoding of a schema: its root name followed by
// the record of its parameter tree.
func (s *Serializer) SaveSchema(sc *hash.Schema) ([]byte, error) {
	return s.encoder(wire.NewWriter(256), nil).schema(sc)
}

// LoadSchema decodes a schema written by SaveSchema and returns it with the
// number of bytes consumed.
func (s *Serializer) LoadSchema(data []byte) (*hash.Schema, int, error) {
	r := wire.NewReader(data)
	sc, err := s.decoder(r).readSchema()
	return sc, r.Pos(), err
}
