package archive

import (
	"bytes"
	"fmt"
	"math"

	"github.com/acolita/hashwire/internal/wire"
	"github.com/zeebo/blake3"
)

// Magic opens every framed archive. Plain archives have no header and are
// a bare concatenation of records.
const Magic = "HWARCHV1"

// Frame layout, little-endian:
//
//	compression:u8 flags:u8 stored:u32 size:u32 [digest:32] payload
const (
	frameHeaderSize = 10
	digestSize      = 32

	flagDigest = 1 << 0
)

// frame is a parsed frame whose payload still references the archive
// bytes.
type frame struct {
	offset      int
	compression Compression
	size        int
	digest      []byte
	stored      []byte
}

// appendFrame appends the frame of record to dst.
func appendFrame(dst, record []byte, c Compression, digest bool) ([]byte, error) {
	if uint64(len(record)) > math.MaxUint32 {
		return nil, fmt.Errorf("record of %d bytes exceeds frame limit", len(record))
	}
	stored, used, err := compress(record, c)
	if err != nil {
		return nil, err
	}
	var flags uint8
	if digest {
		flags |= flagDigest
	}

	w := wire.WrapWriter(dst)
	w.WriteUint8(uint8(used))
	w.WriteUint8(flags)
	w.WriteUint32(uint32(len(stored)))
	w.WriteUint32(uint32(len(record)))
	if digest {
		sum := blake3.Sum256(stored)
		w.WriteBytes(sum[:])
	}
	w.WriteBytes(stored)
	return w.Bytes(), nil
}

// nextFrame parses the frame at the reader position. A frame cut short by
// the end of data gives wire.ErrUnexpectedEOF and leaves the position
// undefined.
func nextFrame(r *wire.Reader) (frame, error) {
	f := frame{offset: r.Pos()}
	tag, err := r.ReadByte()
	if err != nil {
		return f, err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return f, err
	}
	stored, err := r.ReadUint32()
	if err != nil {
		return f, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return f, err
	}
	if flags&^flagDigest != 0 {
		return f, fmt.Errorf("%w: unknown flags %#x at offset %d", ErrCorruptFrame, flags, f.offset)
	}
	if flags&flagDigest != 0 {
		if f.digest, err = r.Next(digestSize); err != nil {
			return f, err
		}
	}
	if f.stored, err = r.Next(int(stored)); err != nil {
		return f, err
	}
	f.compression = Compression(tag)
	f.size = int(size)
	return f, nil
}

// record verifies the frame digest and returns the decompressed record.
// For uncompressed frames the record references the archive bytes.
func (f frame) record() ([]byte, error) {
	if f.digest != nil {
		sum := blake3.Sum256(f.stored)
		if !bytes.Equal(sum[:], f.digest) {
			return nil, fmt.Errorf("%w: digest mismatch at offset %d", ErrCorruptFrame, f.offset)
		}
	}
	rec, err := decompress(f.stored, f.compression, f.size)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrCorruptFrame, f.offset, err)
	}
	return rec, nil
}
