package binser

import (
	"testing"

	"github.com/acolita/hashwire/pkg/hash"
)

// FuzzLoad tests that the decoder doesn't panic on arbitrary input and that
// anything it accepts survives another round trip.
func FuzzLoad(f *testing.F) {
	seeds := []*hash.Hash{
		hash.New(),
		hash.New("a", int32(1)),
		hash.New("s.v", []string{"x", ""}, "n", nil),
		hash.New("vh", []*hash.Hash{hash.New("k", 1.5)}),
		hash.New("b", hash.NewByteArray([]byte{1, 2, 3})),
	}
	for _, h := range seeds {
		data, err := Save(h)
		if err != nil {
			f.Fatal(err)
		}
		f.Add(data)
	}
	f.Add([]byte{})
	f.Add([]byte{1, 0, 0, 0, 1, 'a', 0, 0, 0, 0, 33, 0, 0, 0})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})

	s := New()
	f.Fuzz(func(t *testing.T, data []byte) {
		h := hash.New()
		n, err := s.Load(h, data)
		if err != nil {
			return
		}
		again, err := s.Save(h)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		decoded := hash.New()
		if _, err := s.Load(decoded, again); err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if !hash.FullyEquals(h, decoded, true) {
			t.Fatalf("round trip changed tree:\n%s\nvs\n%s", h, decoded)
		}
		if n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}
	})
}

// FuzzRoundTrip tests that string and byte content survives a round trip.
func FuzzRoundTrip(f *testing.F) {
	f.Add("key", "value", []byte("payload"))
	f.Add("", "", []byte{})
	f.Add("with.dot", "日本語", []byte{0, 0xff})

	s := New()
	f.Fuzz(func(t *testing.T, key, value string, payload []byte) {
		if len(key) > MaxKeyLength {
			key = key[:MaxKeyLength]
		}
		h := hash.New()
		h.SetKey(key, hash.MustValueOf(value)).
			SetAttribute("p", hash.NewByteArray(append([]byte(nil), payload...)))

		data, err := s.Save(h)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got := hash.New()
		if _, err := s.Load(got, data); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !hash.FullyEquals(h, got, true) {
			t.Errorf("round trip differs for key %q", key)
		}
	})
}
