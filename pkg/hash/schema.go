package hash

import (
	"fmt"
	"sync"
)

// Attribute names carrying schema element metadata.
const (
	AttrNodeType      = "nodeType"
	AttrValueType     = "valueType"
	AttrAccessMode    = "accessMode"
	AttrDefaultValue  = "defaultValue"
	AttrDisplayedName = "displayedName"
	AttrDescription   = "description"
	AttrAlias         = "alias"
	AttrTags          = "tags"
	AttrMinInclusive  = "minInc"
	AttrMaxInclusive  = "maxInc"
)

// NodeType classifies a schema element.
type NodeType int32

const (
	NodeLeaf          NodeType = 0
	NodeNode          NodeType = 1
	NodeChoiceOfNodes NodeType = 2
	NodeListOfNodes   NodeType = 3
)

// AccessMode is a bit set of the ways an element may be accessed.
type AccessMode int32

const (
	AccessInit  AccessMode = 1
	AccessRead  AccessMode = 2
	AccessWrite AccessMode = 4
)

// Schema describes the expected shape of a Hash. It is a named Hash whose
// node attributes carry element metadata; the codec stores it exactly like
// any other tree, and the accessors here read that metadata back.
//
// Alias lookups and UpdateAliasMap may run concurrently. The parameter
// tree itself is a Hash and must not be modified during lookups.
type Schema struct {
	rootName string
	params   *Hash

	mu      sync.Mutex
	aliases map[string]string // nil until built
}

// NewSchema returns an empty schema called rootName.
func NewSchema(rootName string) *Schema {
	return &Schema{rootName: rootName, params: New()}
}

// SchemaFromHash wraps params in a schema called rootName. The schema takes
// ownership of params.
func SchemaFromHash(rootName string, params *Hash) *Schema {
	if params == nil {
		params = New()
	}
	return &Schema{rootName: rootName, params: params}
}

// RootName returns the schema name.
func (s *Schema) RootName() string { return s.rootName }

// Parameters returns the tree holding the schema elements. Modifying it
// after an alias lookup requires a call to UpdateAliasMap.
func (s *Schema) Parameters() *Hash { return s.params }

// SetParameterHash replaces the element tree.
func (s *Schema) SetParameterHash(params *Hash) {
	s.mu.Lock()
	s.params = params
	s.aliases = nil
	s.mu.Unlock()
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	return &Schema{rootName: s.rootName, params: s.params.Clone()}
}

// UpdateAliasMap rebuilds the alias index from the alias attributes.
func (s *Schema) UpdateAliasMap() {
	s.mu.Lock()
	s.aliases = nil
	s.mu.Unlock()
}

func (s *Schema) aliasPath(alias string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.aliases == nil {
		s.aliases = make(map[string]string)
		collectAliases(s.aliases, s.params, "")
	}
	path, ok := s.aliases[alias]
	return path, ok
}

func collectAliases(aliases map[string]string, h *Hash, prefix string) {
	for n := range h.Nodes() {
		path := n.key
		if prefix != "" {
			path = prefix + string(DefaultSeparator) + n.key
		}
		if alias, ok := n.attrs.Get(AttrAlias); ok {
			aliases[FormatValue(alias)] = path
		}
		nt, err := AttributeAs[int32](&n.attrs, AttrNodeType)
		if err != nil {
			continue
		}
		if sub, ok := n.value.data.(*Hash); ok && (NodeType(nt) == NodeNode || NodeType(nt) == NodeChoiceOfNodes) {
			collectAliases(aliases, sub, path)
		}
	}
}

// Has reports whether path names an element.
func (s *Schema) Has(path string) bool {
	return s.params.Has(path)
}

// KeyHasAlias reports whether the element at path has an alias.
func (s *Schema) KeyHasAlias(path string) bool {
	return s.params.HasAttribute(path, AttrAlias)
}

// AliasFromKey returns the alias of the element at path.
func (s *Schema) AliasFromKey(path string) (Value, error) {
	return s.params.GetAttribute(path, AttrAlias)
}

// KeyFromAlias returns the path of the element whose alias renders as the
// same string as alias.
func (s *Schema) KeyFromAlias(alias any) (string, error) {
	v, err := ValueOf(alias)
	if err != nil {
		return "", err
	}
	path, ok := s.aliasPath(FormatValue(v))
	if !ok {
		return "", fmt.Errorf("%w: alias %v", ErrNotFound, alias)
	}
	return path, nil
}

// AliasHasKey reports whether some element carries alias.
func (s *Schema) AliasHasKey(alias any) bool {
	_, err := s.KeyFromAlias(alias)
	return err == nil
}

// NodeType returns the element classification at path.
func (s *Schema) NodeType(path string) (NodeType, error) {
	nt, err := GetAttributeAs[int32](s.params, path, AttrNodeType)
	return NodeType(nt), err
}

// ValueType returns the declared value type of the leaf at path.
func (s *Schema) ValueType(path string) (Type, error) {
	name, err := GetAttributeAs[string](s.params, path, AttrValueType)
	if err != nil {
		return 0, err
	}
	return ParseType(name)
}

// AccessMode returns the access mode of the element at path.
func (s *Schema) AccessMode(path string) (AccessMode, error) {
	m, err := GetAttributeAs[int32](s.params, path, AttrAccessMode)
	return AccessMode(m), err
}

// DefaultValue returns the default value of the element at path.
func (s *Schema) DefaultValue(path string) (Value, error) {
	return s.params.GetAttribute(path, AttrDefaultValue)
}

// DisplayedName returns the display name of the element at path.
func (s *Schema) DisplayedName(path string) (string, error) {
	return GetAttributeAs[string](s.params, path, AttrDisplayedName)
}

// Description returns the description of the element at path.
func (s *Schema) Description(path string) (string, error) {
	return GetAttributeAs[string](s.params, path, AttrDescription)
}

// Tags returns the tags of the element at path.
func (s *Schema) Tags(path string) ([]string, error) {
	return GetAttributeAs[[]string](s.params, path, AttrTags)
}

// MinInclusive returns the inclusive lower bound of the element at path.
func (s *Schema) MinInclusive(path string) (Value, error) {
	return s.params.GetAttribute(path, AttrMinInclusive)
}

// MaxInclusive returns the inclusive upper bound of the element at path.
func (s *Schema) MaxInclusive(path string) (Value, error) {
	return s.params.GetAttribute(path, AttrMaxInclusive)
}

// AddLeaf declares a leaf element at path with the given value type and
// access mode, returning its node for further attributes.
func (s *Schema) AddLeaf(path string, t Type, mode AccessMode) *Node {
	n := s.params.Set(path, None{})
	n.SetAttribute(AttrNodeType, int32(NodeLeaf)).
		SetAttribute(AttrValueType, t.String()).
		SetAttribute(AttrAccessMode, int32(mode))
	s.UpdateAliasMap()
	return n
}

// AddNode declares a node element at path that groups other elements.
func (s *Schema) AddNode(path string) *Node {
	n := s.params.Set(path, New())
	n.SetAttribute(AttrNodeType, int32(NodeNode))
	s.UpdateAliasMap()
	return n
}

func (s *Schema) String() string {
	return fmt.Sprintf("Schema %q\n%s", s.rootName, s.params)
}
