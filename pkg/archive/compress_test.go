package archive

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("snapshot "), 200)
	random := make([]byte, 4096)
	rand.Read(random)

	tests := []struct {
		name string
		data []byte
		c    Compression
		want Compression
	}{
		{"none", compressible, CompressionNone, CompressionNone},
		{"lz4", compressible, CompressionLZ4, CompressionLZ4},
		{"zstd", compressible, CompressionZstd, CompressionZstd},
		{"bg4_lz4", compressible, CompressionBG4LZ4, CompressionBG4LZ4},
		{"lz4 incompressible", random, CompressionLZ4, CompressionNone},
		{"zstd incompressible", random, CompressionZstd, CompressionNone},
		{"empty", nil, CompressionZstd, CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, used, err := compress(tt.data, tt.c)
			if err != nil {
				t.Fatal(err)
			}
			if used != tt.want {
				t.Errorf("used %s, want %s", used, tt.want)
			}
			got, err := decompress(stored, used, len(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Error("round trip differs")
			}
		})
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	stored, used, err := compress(bytes.Repeat([]byte{7}, 1000), CompressionLZ4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decompress(stored, used, 999); err == nil {
		t.Error("size mismatch accepted")
	}
	if _, err := decompress([]byte{1, 2}, CompressionNone, 3); err == nil {
		t.Error("short uncompressed payload accepted")
	}
	if _, err := decompress(nil, Compression(9), 0); err == nil {
		t.Error("unknown compression accepted")
	}
}

func TestBG4Transpose(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := bg4Transpose(data)
	want := []byte{1, 5, 2, 6, 3, 7, 4, 8, 9, 10}
	if !bytes.Equal(got, want) {
		t.Errorf("bg4Transpose = %v, want %v", got, want)
	}
	if back := bg4Untranspose(got); !bytes.Equal(back, data) {
		t.Errorf("bg4Untranspose = %v", back)
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd, CompressionBG4LZ4} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCompression(%q) = %v, %v", c, got, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("gzip accepted")
	}
}

func TestDecompressImplausibleSize(t *testing.T) {
	tests := []struct {
		name   string
		stored []byte
		c      Compression
	}{
		{"lz4", []byte{0x10, 'a'}, CompressionLZ4},
		{"bg4-lz4", []byte{0x10, 'a'}, CompressionBG4LZ4},
		{"zstd", zstdEncoder.EncodeAll([]byte("abc"), nil), CompressionZstd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decompress(tt.stored, tt.c, 1<<31); err == nil {
				t.Error("2 GiB record from a few stored bytes accepted")
			}
		})
	}
}
