package hash

import (
	"sync"
	"sync/atomic"
)

// Buffer is a reference-counted byte payload shared between NDArray and
// ByteArray values. Copying a Hash shares the Buffer instead of copying the
// bytes; writers go through a copy-on-write path once a Buffer has more than
// one holder.
//
// Holders are counted explicitly: every handle created by Share and every
// outstanding Lease counts. A handle that is simply dropped is never
// subtracted, so a Buffer that has been shared stays copy-on-write for its
// remaining lifetime.
type Buffer struct {
	data []byte
	refs atomic.Int64
}

// NewBuffer wraps data without copying it. The caller hands ownership of
// data to the Buffer and must not modify it afterwards.
func NewBuffer(data []byte) *Buffer {
	if data == nil {
		data = []byte{}
	}
	b := &Buffer{data: data}
	b.refs.Store(1)
	return b
}

// CopyBuffer returns a Buffer holding a private copy of data.
func CopyBuffer(data []byte) *Buffer {
	return NewBuffer(append([]byte(nil), data...))
}

// Bytes returns the payload. The slice must be treated as read-only.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the payload size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Shared reports whether more than one holder references the payload.
func (b *Buffer) Shared() bool {
	return b.refs.Load() > 1
}

// Share registers a new holder and returns b.
func (b *Buffer) Share() *Buffer {
	b.refs.Add(1)
	return b
}

// Lease pins the payload for a consumer that references it without copying,
// such as a no-copy BufferSet. While the lease is held, writers through
// NDArray.MutableData copy instead of mutating in place. The returned
// release function is idempotent.
func (b *Buffer) Lease() (data []byte, release func()) {
	b.refs.Add(1)
	var once sync.Once
	return b.data, func() {
		once.Do(func() { b.refs.Add(-1) })
	}
}

// writable returns a Buffer that the caller may mutate: b itself when it has
// a single holder, otherwise a private copy. In the copy case the caller's
// hold on b is dropped.
func (b *Buffer) writable() *Buffer {
	if !b.Shared() {
		return b
	}
	c := CopyBuffer(b.data)
	b.refs.Add(-1)
	return c
}
