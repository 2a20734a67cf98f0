package hash

import (
	"fmt"
	"iter"
)

// Attribute is one named value attached to a node.
type Attribute struct {
	name  string
	value Value
}

// Name returns the attribute name.
func (a Attribute) Name() string { return a.name }

// Value returns the attribute value.
func (a Attribute) Value() Value { return a.value }

// Attributes is an insertion-ordered set of named values. The zero value is
// an empty set ready to use.
type Attributes struct {
	list  []Attribute
	index map[string]int
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.list)
}

// Set stores x under name, replacing an existing attribute in place. It
// panics if x has no Type.
func (a *Attributes) Set(name string, x any) {
	a.SetValue(name, MustValueOf(x))
}

// SetValue stores v under name, replacing an existing attribute in place.
func (a *Attributes) SetValue(name string, v Value) {
	if i, ok := a.index[name]; ok {
		a.list[i].value = v
		return
	}
	if a.index == nil {
		a.index = make(map[string]int)
	}
	a.index[name] = len(a.list)
	a.list = append(a.list, Attribute{name: name, value: v})
}

// Get returns the attribute called name.
func (a *Attributes) Get(name string) (Value, bool) {
	i, ok := a.index[name]
	if !ok {
		return Value{}, false
	}
	return a.list[i].value, true
}

// Has reports whether an attribute called name exists.
func (a *Attributes) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// Erase removes the attribute called name and reports whether it existed.
func (a *Attributes) Erase(name string) bool {
	i, ok := a.index[name]
	if !ok {
		return false
	}
	a.list = append(a.list[:i], a.list[i+1:]...)
	delete(a.index, name)
	for j := i; j < len(a.list); j++ {
		a.index[a.list[j].name] = j
	}
	return true
}

// Clear removes all attributes.
func (a *Attributes) Clear() {
	a.list = nil
	a.index = nil
}

// All iterates over the attributes in insertion order.
func (a *Attributes) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, attr := range a.list {
			if !yield(attr.name, attr.value) {
				return
			}
		}
	}
}

// At returns the i-th attribute in insertion order.
func (a *Attributes) At(i int) Attribute {
	return a.list[i]
}

func (a *Attributes) clone() Attributes {
	if len(a.list) == 0 {
		return Attributes{}
	}
	out := Attributes{
		list:  make([]Attribute, len(a.list)),
		index: make(map[string]int, len(a.list)),
	}
	for i, attr := range a.list {
		out.list[i] = Attribute{name: attr.name, value: attr.value.Clone()}
		out.index[attr.name] = i
	}
	return out
}

// AttributeAs returns the attribute called name as T.
func AttributeAs[T any](a *Attributes, name string) (T, error) {
	v, ok := a.Get(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	return As[T](v)
}
