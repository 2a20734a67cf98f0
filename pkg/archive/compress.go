package archive

import (
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a frame payload is stored. The values are
// written into frame headers and must not change.
type Compression uint8

const (
	// CompressionNone stores the record as is.
	CompressionNone Compression = 0

	// CompressionLZ4 stores the record as one LZ4 block.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores the record as one zstd frame.
	CompressionZstd Compression = 2

	// CompressionBG4LZ4 groups the bytes of every 4-byte word by
	// position before LZ4. It suits records dominated by float32 arrays.
	CompressionBG4LZ4 Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionBG4LZ4:
		return "bg4_lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name. The empty string means
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "bg4_lz4":
		return CompressionBG4LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// A frame size field is checked against these bounds before any output
// buffer is allocated. An LZ4 block cannot expand by more than 255 times;
// zstd output is grown as it is decoded and only pre-sized up to
// zstdPresize times the stored length.
const (
	lz4MaxExpansion = 255
	zstdPresize     = 16
)

// errIncompressible makes compress fall back to storing the record.
var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(math.MaxUint32))
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns the stored form of data and the compression actually
// used, which is CompressionNone when c does not shrink data.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var out []byte
	var err error
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(data)
	case CompressionZstd:
		out = zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			err = errIncompressible
		}
	case CompressionBG4LZ4:
		out, err = compressLZ4(bg4Transpose(data))
	default:
		return nil, 0, fmt.Errorf("unsupported compression %s", c)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, c, nil
}

// decompress reverses compress. size is the length of the original record.
func decompress(stored []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("stored payload is %d bytes, header says %d", len(stored), size)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, size)
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, min(size, len(stored)*zstdPresize)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	case CompressionBG4LZ4:
		out, err := decompressLZ4(stored, size)
		if err != nil {
			return nil, err
		}
		return bg4Untranspose(out), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(stored []byte, size int) ([]byte, error) {
	if size > len(stored)*lz4MaxExpansion {
		return nil, fmt.Errorf("lz4 decompress: %d stored bytes cannot expand to %d", len(stored), size)
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(stored, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
	}
	return dst, nil
}

// bg4Transpose moves byte i of every 4-byte group into plane i. Trailing
// bytes that do not fill a group stay at the end unchanged.
func bg4Transpose(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := range groups {
		out[i] = data[i*4]
		out[groups+i] = data[i*4+1]
		out[groups*2+i] = data[i*4+2]
		out[groups*3+i] = data[i*4+3]
	}
	copy(out[groups*4:], data[groups*4:])
	return out
}

func bg4Untranspose(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := range groups {
		out[i*4] = data[i]
		out[i*4+1] = data[groups+i]
		out[i*4+2] = data[groups*2+i]
		out[i*4+3] = data[groups*3+i]
	}
	copy(out[groups*4:], data[groups*4:])
	return out
}
