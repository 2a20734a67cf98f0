package serializer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acolita/hashwire/pkg/binser"
	"github.com/acolita/hashwire/pkg/hash"
	"github.com/google/go-cmp/cmp"
)

func TestNames(t *testing.T) {
	if diff := cmp.Diff([]string{"Bin", "Cbor"}, Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("Xml", nil); !errors.Is(err, ErrUnknownSerializer) {
		t.Errorf("got %v, want ErrUnknownSerializer", err)
	}
}

func TestSerializersAgree(t *testing.T) {
	arr, err := hash.NDArrayOf([]uint16{1, 2, 3, 4}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	h := hash.New(
		"a.b", int32(1),
		"a.c", []float64{0.5},
		"s", "text",
		"arr", arr,
		"vh", []*hash.Hash{hash.New("x", true)},
	)
	if err := h.SetAttribute("s", "unit", "mm"); err != nil {
		t.Fatal(err)
	}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := New(name, nil)
			if err != nil {
				t.Fatal(err)
			}
			if s.Name() != name {
				t.Errorf("Name = %q", s.Name())
			}

			var seq []byte
			for range 2 {
				if err := s.Save2(h, &seq); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Save2(hash.New("last", true), &seq); err != nil {
				t.Fatal(err)
			}

			got := hash.New()
			n, err := s.Load(got, seq)
			if err != nil {
				t.Fatal(err)
			}
			if !hash.FullyEquals(h, got, true) {
				t.Errorf("first record differs:\n%s", got)
			}
			if Detect(seq) != name {
				t.Errorf("Detect = %q", Detect(seq))
			}

			if err := s.LoadLastFromSequence(got, seq[n:]); err != nil {
				t.Fatal(err)
			}
			if !got.Has("last") || got.Len() != 1 {
				t.Errorf("last record = %s", got)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigParse(t *testing.T) {
	yaml := `
serializer: Cbor
bin:
  max_depth: 3
  aliased_payloads: true
archive:
  framed: true
  compression: lz4
  digest: true
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Serializer: "Cbor",
		Bin:        BinConfig{MaxDepth: 3, AliasedPayloads: true},
		Archive:    ArchiveConfig{Framed: true, Compression: "lz4", Digest: true},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	s, err := New("Bin", cfg)
	if err != nil {
		t.Fatal(err)
	}
	bin := s.(*binser.Serializer)
	if !bin.AliasesInput() {
		t.Error("aliased_payloads not applied")
	}
	if _, err := bin.Save(hash.New("a.b.c.d", 1)); !errors.Is(err, binser.ErrMaxDepthExceeded) {
		t.Errorf("max_depth not applied: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown serializer", "serializer: Xml", "unknown serializer"},
		{"negative depth", "bin: {max_depth: -1}", "max_depth"},
		{"unknown compression", "archive: {framed: true, compression: gzip}", "gzip"},
		{"compression needs frames", "archive: {compression: zstd}", "requires archive.framed"},
		{"digest needs frames", "archive: {digest: true}", "requires archive.framed"},
		{"bad yaml", "serializer: [", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashwire.yaml")
	if err := os.WriteFile(path, []byte("serializer: Cbor\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serializer != "Cbor" {
		t.Errorf("Serializer = %q", cfg.Serializer)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
