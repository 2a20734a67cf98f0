package binser

import (
	"github.com/acolita/hashwire/pkg/hash"
	"github.com/zeebo/blake3"
)

// SequenceKey is the key under which SaveSequence stores its trees.
const SequenceKey = "KRB_Sequence"

// SaveSequence encodes several trees as one record holding a single
// VECTOR_HASH node called SequenceKey.
func (s *Serializer) SaveSequence(hs []*hash.Hash) ([]byte, error) {
	wrapper := hash.New()
	wrapper.SetKey(SequenceKey, hash.MustValueOf(hs))
	return s.Save(wrapper)
}

// LoadSequence decodes a record written by SaveSequence. Any other record
// is returned as a sequence of one tree.
func (s *Serializer) LoadSequence(data []byte) ([]*hash.Hash, int, error) {
	h := hash.New()
	n, err := s.Load(h, data)
	if err != nil {
		return nil, n, err
	}
	if h.Len() == 1 && h.At(0).Key() == SequenceKey {
		if hs, err := hash.As[[]*hash.Hash](h.At(0).Value()); err == nil {
			return hs, n, nil
		}
	}
	return []*hash.Hash{h}, n, nil
}

// Digest returns the BLAKE3-256 digest of the record of h. Trees that
// encode to the same bytes have the same digest.
func (s *Serializer) Digest(h *hash.Hash) ([32]byte, error) {
	data, err := s.Save(h)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(data), nil
}
