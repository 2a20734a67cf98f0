// Package bufferset implements a segmented byte buffer for the binary codec.
//
// A BufferSet is an ordered list of byte segments. Each segment is either
// owned by the BufferSet or borrowed from the caller. Borrowed segments let
// large array payloads travel from a Hash to an io.Writer without being
// copied; the price is a lifetime contract that Borrowed makes explicit.
//
// A BufferSet is not safe for concurrent use.
package bufferset

import (
	"io"
	"net"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/acolita/hashwire/pkg/hash"
)

// Borrowed is a byte slice whose memory belongs to someone else. Building
// one is the caller's acknowledgement of the lifetime contract: the bytes
// must stay alive and unmodified until the BufferSet holding them is Reset
// or discarded.
type Borrowed struct {
	data    []byte
	release func()
}

// Lend wraps caller memory that the caller promises to keep alive and
// unmodified while any BufferSet references it.
func Lend(data []byte) Borrowed {
	return Borrowed{data: data}
}

// Lease borrows the payload of a shared Buffer. The lease keeps writers of
// the Buffer on the copy-on-write path until the BufferSet is Reset.
func Lease(b *hash.Buffer) Borrowed {
	data, release := b.Lease()
	return Borrowed{data: data, release: release}
}

// Bytes returns the borrowed slice.
func (b Borrowed) Bytes() []byte { return b.data }

// Release ends the borrow. It is safe to call more than once.
func (b Borrowed) Release() {
	if b.release != nil {
		b.release()
	}
}

type segment struct {
	data     []byte
	borrowed bool
	release  func()
}

// BufferSet is an ordered sequence of owned and borrowed byte segments with
// a read cursor.
type BufferSet struct {
	copyAll bool
	segs    []segment
	total   int

	// read cursor
	seg, off, pos int
}

// New returns an empty BufferSet. With copyAll set, borrowed appends are
// copied into owned segments, so the BufferSet never references caller
// memory.
func New(copyAll bool) *BufferSet {
	return &BufferSet{copyAll: copyAll}
}

// CopyAll reports whether borrowed appends are copied.
func (b *BufferSet) CopyAll() bool {
	return b.copyAll
}

// AppendCopy appends a private copy of p as a new owned segment.
func (b *BufferSet) AppendCopy(p []byte) {
	b.add(segment{data: append(make([]byte, 0, len(p)), p...)})
}

// Adopt appends p as an owned segment without copying. The caller hands
// ownership of p to the BufferSet.
func (b *BufferSet) Adopt(p []byte) {
	b.add(segment{data: p})
}

// AppendBorrowed appends borrowed memory. In copyAll mode the bytes are
// copied and the borrow released immediately.
func (b *BufferSet) AppendBorrowed(br Borrowed) {
	if b.copyAll {
		b.AppendCopy(br.data)
		br.Release()
		return
	}
	b.add(segment{data: br.data, borrowed: true, release: br.release})
}

func (b *BufferSet) add(s segment) {
	b.segs = append(b.segs, s)
	b.total += len(s.data)
}

// Len returns the number of segments, including empty ones.
func (b *BufferSet) Len() int {
	return len(b.segs)
}

// Sizes returns the byte count of every segment in order.
func (b *BufferSet) Sizes() []int {
	out := make([]int, len(b.segs))
	for i, s := range b.segs {
		out[i] = len(s.data)
	}
	return out
}

// TotalSize returns the sum of all segment sizes.
func (b *BufferSet) TotalSize() int {
	return b.total
}

// Borrowed reports whether segment i references caller memory.
func (b *BufferSet) Borrowed(i int) bool {
	return b.segs[i].borrowed
}

// AppendTo appends one view per non-empty segment to bufs. The views alias
// the segments.
func (b *BufferSet) AppendTo(bufs *net.Buffers) {
	for _, s := range b.segs {
		if len(s.data) > 0 {
			*bufs = append(*bufs, s.data)
		}
	}
}

// WriteTo writes all segments to w, using vectored I/O where w supports it.
func (b *BufferSet) WriteTo(w io.Writer) (int64, error) {
	bufs := make(net.Buffers, 0, len(b.segs))
	b.AppendTo(&bufs)
	return bufs.WriteTo(w)
}

// Bytes returns the concatenation of all segments as a new slice.
func (b *BufferSet) Bytes() []byte {
	out := make([]byte, 0, b.total)
	for _, s := range b.segs {
		out = append(out, s.data...)
	}
	return out
}

// Rewind moves the read cursor back to the first byte.
func (b *BufferSet) Rewind() {
	b.seg, b.off, b.pos = 0, 0, 0
}

// Remaining returns the number of unread bytes.
func (b *BufferSet) Remaining() int {
	return b.total - b.pos
}

// Next returns the next n unread bytes and advances the cursor. When the
// bytes lie inside one segment the result aliases it; a read that spans
// segments is assembled into a new slice.
func (b *BufferSet) Next(n int) ([]byte, error) {
	if n < 0 || n > b.Remaining() {
		return nil, wire.ErrUnexpectedEOF
	}
	if n == 0 {
		return []byte{}, nil
	}
	b.skipExhausted()
	if cur := b.segs[b.seg].data; len(cur)-b.off >= n {
		out := cur[b.off : b.off+n]
		b.advance(n)
		return out, nil
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		b.skipExhausted()
		cur := b.segs[b.seg].data[b.off:]
		k := min(len(cur), n-len(out))
		out = append(out, cur[:k]...)
		b.advance(k)
	}
	return out, nil
}

func (b *BufferSet) skipExhausted() {
	for b.seg < len(b.segs) && b.off == len(b.segs[b.seg].data) {
		b.seg++
		b.off = 0
	}
}

func (b *BufferSet) advance(n int) {
	b.off += n
	b.pos += n
	b.skipExhausted()
}

// Reset releases every borrow and empties the BufferSet.
func (b *BufferSet) Reset() {
	for _, s := range b.segs {
		if s.release != nil {
			s.release()
		}
	}
	b.segs = nil
	b.total = 0
	b.Rewind()
}
