// Package hash implements an ordered, typed, recursive key/value tree.
//
// A Hash is a sequence of nodes. Each node has a string key that is unique
// within its level, a typed Value, and an ordered set of typed attributes.
// Values may themselves be trees (HASH) or lists of trees (VECTOR_HASH),
// which makes the structure path-addressable:
//
//	h := hash.New("a.b.c", int32(1), "a.d", "text")
//	v, err := hash.GetAs[int32](h, "a.b.c")
//
// Paths use '.' as separator by default. Methods ending in Sep take an
// explicit separator, which allows keys containing '.' to be set at the first
// level. A path segment of the form name[i] addresses the i-th tree of a
// VECTOR_HASH node.
//
// Iteration and serialization follow insertion order; re-setting an
// existing key replaces its value in place, keeping position and
// attributes.
package hash

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// DefaultSeparator separates path segments.
const DefaultSeparator = '.'

// Node is one key/value/attributes entry of a Hash.
type Node struct {
	key   string
	value Value
	attrs Attributes
}

// Key returns the node key.
func (n *Node) Key() string { return n.key }

// Value returns the node value.
func (n *Node) Value() Value { return n.value }

// Type returns the type of the node value.
func (n *Node) Type() Type { return n.value.typ }

// Attributes returns the node attributes for reading and writing.
func (n *Node) Attributes() *Attributes { return &n.attrs }

// Set replaces the node value. It panics if x has no Type.
func (n *Node) Set(x any) {
	n.value = MustValueOf(x)
}

// SetValue replaces the node value.
func (n *Node) SetValue(v Value) {
	n.value = v
}

// SetAttribute sets an attribute and returns n for chaining. It panics if x
// has no Type.
func (n *Node) SetAttribute(name string, x any) *Node {
	n.attrs.Set(name, x)
	return n
}

// Hash is an ordered tree of nodes. The zero value is an empty Hash ready
// to use.
type Hash struct {
	nodes []*Node
	index map[string]int
}

// New returns a Hash populated from alternating path/value arguments. It
// panics if a path is not a string or a value has no Type.
func New(kv ...any) *Hash {
	if len(kv)%2 != 0 {
		panic("hash: New needs an even number of arguments")
	}
	h := &Hash{}
	for i := 0; i < len(kv); i += 2 {
		path, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("hash: New argument %d is %T, want string path", i, kv[i]))
		}
		h.Set(path, kv[i+1])
	}
	return h
}

// Len returns the number of first-level nodes.
func (h *Hash) Len() int {
	return len(h.nodes)
}

// Empty reports whether h has no nodes.
func (h *Hash) Empty() bool {
	return len(h.nodes) == 0
}

// Clear removes all nodes.
func (h *Hash) Clear() {
	h.nodes = nil
	h.index = nil
}

// Keys returns the first-level keys in order.
func (h *Hash) Keys() []string {
	keys := make([]string, len(h.nodes))
	for i, n := range h.nodes {
		keys[i] = n.key
	}
	return keys
}

// Nodes iterates over the first-level nodes in order.
func (h *Hash) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range h.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// All iterates over first-level keys and values in order.
func (h *Hash) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, n := range h.nodes {
			if !yield(n.key, n.value) {
				return
			}
		}
	}
}

// At returns the i-th first-level node.
func (h *Hash) At(i int) *Node {
	return h.nodes[i]
}

// SetKey sets a first-level node without interpreting key as a path.
// An existing node keeps its position and attributes.
func (h *Hash) SetKey(key string, v Value) *Node {
	if i, ok := h.index[key]; ok {
		n := h.nodes[i]
		n.value = v
		return n
	}
	if h.index == nil {
		h.index = make(map[string]int)
	}
	n := &Node{key: key, value: v}
	h.index[key] = len(h.nodes)
	h.nodes = append(h.nodes, n)
	return n
}

// Node returns the first-level node called key.
func (h *Hash) Node(key string) (*Node, bool) {
	i, ok := h.index[key]
	if !ok {
		return nil, false
	}
	return h.nodes[i], true
}

// Set stores x at path, creating intermediate trees as needed. An
// intermediate node that is not a HASH is replaced. It panics if x has no
// Type; use SetValue with ValueOf to handle that case as an error.
func (h *Hash) Set(path string, x any) *Node {
	return h.SetValueSep(path, DefaultSeparator, MustValueOf(x))
}

// SetSep is Set with an explicit separator.
func (h *Hash) SetSep(path string, sep byte, x any) *Node {
	return h.SetValueSep(path, sep, MustValueOf(x))
}

// SetValue stores v at path.
func (h *Hash) SetValue(path string, v Value) *Node {
	return h.SetValueSep(path, DefaultSeparator, v)
}

// SetValueSep stores v at path using sep as separator. If the last segment
// addresses a VECTOR_HASH element, v must be a HASH and the returned Node
// is nil.
func (h *Hash) SetValueSep(path string, sep byte, v Value) *Node {
	segs := strings.Split(path, string(sep))
	cur := h
	for _, seg := range segs[:len(segs)-1] {
		cur = cur.subtree(seg)
	}
	last := segs[len(segs)-1]
	if name, idx, ok := splitIndex(last); ok {
		sub, isHash := v.data.(*Hash)
		if !isHash {
			panic(fmt.Sprintf("hash: %s cannot be stored as element %d of %q", v.typ, idx, name))
		}
		vec := cur.vector(name, idx)
		vec[idx] = sub
		return nil
	}
	return cur.SetKey(last, v)
}

// subtree returns the tree addressed by one path segment, creating it.
func (h *Hash) subtree(seg string) *Hash {
	if name, idx, ok := splitIndex(seg); ok {
		return h.vector(name, idx)[idx]
	}
	if n, ok := h.Node(seg); ok {
		if sub, ok := n.value.data.(*Hash); ok {
			return sub
		}
	}
	sub := New()
	h.SetKey(seg, Value{typ: TypeHash, data: sub})
	return sub
}

// vector returns the VECTOR_HASH called name, grown to hold index idx.
func (h *Hash) vector(name string, idx int) []*Hash {
	var vec []*Hash
	n, ok := h.Node(name)
	if ok {
		vec, _ = n.value.data.([]*Hash)
	}
	for len(vec) <= idx {
		vec = append(vec, New())
	}
	if ok && n.value.typ == TypeVectorHash {
		n.value.data = vec
	} else {
		h.SetKey(name, Value{typ: TypeVectorHash, data: vec})
	}
	return vec
}

// splitIndex splits "name[i]" into name and i.
func splitIndex(seg string) (string, int, bool) {
	if !strings.HasSuffix(seg, "]") {
		return seg, 0, false
	}
	open := strings.LastIndexByte(seg, '[')
	if open < 0 {
		return seg, 0, false
	}
	idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil || idx < 0 {
		return seg, 0, false
	}
	return seg[:open], idx, true
}

// Get returns the value at path.
func (h *Hash) Get(path string) (Value, error) {
	return h.GetSep(path, DefaultSeparator)
}

// GetSep returns the value at path using sep as separator.
func (h *Hash) GetSep(path string, sep byte) (Value, error) {
	parent, last, err := h.parent(path, sep)
	if err != nil {
		return Value{}, err
	}
	if name, idx, ok := splitIndex(last); ok {
		sub, err := parent.element(name, idx)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", err, path)
		}
		return Value{typ: TypeHash, data: sub}, nil
	}
	n, ok := parent.Node(last)
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return n.value, nil
}

// Find returns the node at path.
func (h *Hash) Find(path string) (*Node, error) {
	return h.FindSep(path, DefaultSeparator)
}

// FindSep returns the node at path using sep as separator.
func (h *Hash) FindSep(path string, sep byte) (*Node, error) {
	parent, last, err := h.parent(path, sep)
	if err != nil {
		return nil, err
	}
	n, ok := parent.Node(last)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return n, nil
}

// Has reports whether path exists.
func (h *Hash) Has(path string) bool {
	_, err := h.Get(path)
	return err == nil
}

// HasSep reports whether path exists using sep as separator.
func (h *Hash) HasSep(path string, sep byte) bool {
	_, err := h.GetSep(path, sep)
	return err == nil
}

// Erase removes the node at path and reports whether it existed.
func (h *Hash) Erase(path string) bool {
	return h.EraseSep(path, DefaultSeparator)
}

// EraseSep removes the node at path using sep as separator.
func (h *Hash) EraseSep(path string, sep byte) bool {
	parent, last, err := h.parent(path, sep)
	if err != nil {
		return false
	}
	i, ok := parent.index[last]
	if !ok {
		return false
	}
	parent.nodes = append(parent.nodes[:i], parent.nodes[i+1:]...)
	delete(parent.index, last)
	for j := i; j < len(parent.nodes); j++ {
		parent.index[parent.nodes[j].key] = j
	}
	return true
}

// parent resolves all but the last segment of path.
func (h *Hash) parent(path string, sep byte) (*Hash, string, error) {
	segs := strings.Split(path, string(sep))
	cur := h
	for _, seg := range segs[:len(segs)-1] {
		if name, idx, ok := splitIndex(seg); ok {
			sub, err := cur.element(name, idx)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %q", err, path)
			}
			cur = sub
			continue
		}
		n, ok := cur.Node(seg)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		sub, ok := n.value.data.(*Hash)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q is %s, not HASH", ErrNotFound, seg, n.value.typ)
		}
		cur = sub
	}
	return cur, segs[len(segs)-1], nil
}

func (h *Hash) element(name string, idx int) (*Hash, error) {
	n, ok := h.Node(name)
	if !ok {
		return nil, ErrNotFound
	}
	vec, ok := n.value.data.([]*Hash)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, not VECTOR_HASH", ErrCast, name, n.value.typ)
	}
	if idx >= len(vec) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNotFound, idx, len(vec))
	}
	return vec[idx], nil
}

// SetAttribute sets attribute name on the node at path. It panics if x has
// no Type.
func (h *Hash) SetAttribute(path, name string, x any) error {
	n, err := h.Find(path)
	if err != nil {
		return err
	}
	n.attrs.Set(name, x)
	return nil
}

// GetAttribute returns attribute name of the node at path.
func (h *Hash) GetAttribute(path, name string) (Value, error) {
	n, err := h.Find(path)
	if err != nil {
		return Value{}, err
	}
	v, ok := n.attrs.Get(name)
	if !ok {
		return Value{}, fmt.Errorf("%w: attribute %q of %q", ErrNotFound, name, path)
	}
	return v, nil
}

// HasAttribute reports whether the node at path has attribute name.
func (h *Hash) HasAttribute(path, name string) bool {
	n, err := h.Find(path)
	return err == nil && n.attrs.Has(name)
}

// Attributes returns the attribute set of the node at path.
func (h *Hash) Attributes(path string) (*Attributes, error) {
	n, err := h.Find(path)
	if err != nil {
		return nil, err
	}
	return &n.attrs, nil
}

// GetAs returns the value at path as T.
func GetAs[T any](h *Hash, path string) (T, error) {
	v, err := h.Get(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// GetAttributeAs returns attribute name of the node at path as T.
func GetAttributeAs[T any](h *Hash, path, name string) (T, error) {
	v, err := h.GetAttribute(path, name)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// Clone returns a deep copy of h. NDArray and ByteArray payloads are
// shared with h rather than copied.
func (h *Hash) Clone() *Hash {
	out := &Hash{}
	if len(h.nodes) == 0 {
		return out
	}
	out.nodes = make([]*Node, len(h.nodes))
	out.index = make(map[string]int, len(h.nodes))
	for i, n := range h.nodes {
		out.nodes[i] = &Node{key: n.key, value: n.value.Clone(), attrs: n.attrs.clone()}
		out.index[n.key] = i
	}
	return out
}

// Paths returns the paths of all leaves in depth-first order. Empty trees
// count as leaves; VECTOR_HASH nodes are not descended into.
func (h *Hash) Paths() []string {
	var out []string
	h.paths("", &out)
	return out
}

func (h *Hash) paths(prefix string, out *[]string) {
	for _, n := range h.nodes {
		path := n.key
		if prefix != "" {
			path = prefix + string(DefaultSeparator) + n.key
		}
		if sub, ok := n.value.data.(*Hash); ok && !sub.Empty() {
			sub.paths(path, out)
			continue
		}
		*out = append(*out, path)
	}
}
