package binser

import (
	"errors"
	"testing"

	"github.com/acolita/hashwire/pkg/bufferset"
	"github.com/acolita/hashwire/pkg/hash"
)

func TestRegistryIsTotal(t *testing.T) {
	r := NewRegistry()
	if err := r.check(); err != nil {
		t.Fatal(err)
	}
	for _, typ := range hash.Types() {
		if _, err := r.lookup(typ); err != nil {
			t.Errorf("lookup(%s): %v", typ, err)
		}
	}
	for _, tag := range []hash.Type{33, 34, 39, 1 << 20} {
		if _, err := r.lookup(tag); !errors.Is(err, ErrUnknownType) {
			t.Errorf("lookup(%d) = %v, want ErrUnknownType", tag, err)
		}
	}
}

func TestTruncatedInput(t *testing.T) {
	data, err := Save(fullTree(t))
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	for i := range len(data) {
		_, err := s.Load(hash.New(), data[:i])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("prefix of %d bytes: got %v, want ErrTruncated", i, err)
		}
	}
}

func TestTruncatedBufferSet(t *testing.T) {
	h := hash.New("arr", mustArray(t, []int64{1, 2, 3}))
	data, err := Save(h)
	if err != nil {
		t.Fatal(err)
	}
	set := bufferset.New(false)
	set.AppendBorrowed(bufferset.Lend(data[:len(data)-1]))
	if err := New().LoadBufferSet(hash.New(), set); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestMalformedInput(t *testing.T) {
	header := func(tag byte) []byte {
		return []byte{1, 0, 0, 0, 1, 'a', 0, 0, 0, 0, tag, 0, 0, 0}
	}
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown tag", header(33), ErrUnknownType},
		{"unknown attribute tag", []byte{1, 0, 0, 0, 1, 'a', 1, 0, 0, 0, 1, 'n', 99, 0, 0, 0}, ErrUnknownType},
		{"none with payload", append(header(35), 1, 0, 0, 0), ErrInconsistent},
		{"huge vector count", append(header(13), 0xff, 0xff, 0xff, 0xff), ErrTruncated},
		{"huge node count", []byte{0xff, 0xff, 0xff, 0x7f}, ErrTruncated},
		{
			"duplicate key",
			[]byte{2, 0, 0, 0, 1, 'a', 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 'a', 0, 0, 0, 0, 0, 0, 0, 0, 1},
			ErrInconsistent,
		},
		{
			"ndarray string element",
			append(header(38), 28, 0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 'x'),
			ErrInconsistent,
		},
		{
			"ndarray unknown element",
			append(header(38), 99, 0, 0, 0),
			ErrUnknownType,
		},
		{
			"ndarray length mismatch",
			append(header(38), 6, 0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3),
			ErrInconsistent,
		},
		{
			"ndarray shape overflow",
			append(header(38), 22, 0, 0, 0, 0, 1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff),
			ErrInconsistent,
		},
		{
			"schema with trailing bytes",
			append(header(32), 7, 0, 0, 0, 1, 's', 0, 0, 0, 0, 9),
			ErrInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(hash.New(), tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMaxDepth(t *testing.T) {
	deep := hash.New("a.b.c.d", int32(1))

	if _, err := New(WithMaxDepth(3)).Save(deep); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("Save: got %v, want ErrMaxDepthExceeded", err)
	}

	data, err := New(WithMaxDepth(4)).Save(deep)
	if err != nil {
		t.Fatalf("Save at limit failed: %v", err)
	}
	if _, err := New(WithMaxDepth(3)).Load(hash.New(), data); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("Load: got %v, want ErrMaxDepthExceeded", err)
	}
	if _, err := New(WithMaxDepth(4)).Load(hash.New(), data); err != nil {
		t.Errorf("Load at limit failed: %v", err)
	}
}

func TestInjectedRegistry(t *testing.T) {
	r := NewRegistry()
	a, b := New(WithRegistry(r)), New(WithRegistry(r))
	if a.reg != b.reg {
		t.Error("registry not shared")
	}
	if a.Name() != "Bin" {
		t.Errorf("Name = %q", a.Name())
	}
}
