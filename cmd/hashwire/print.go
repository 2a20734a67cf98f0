package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/acolita/hashwire/pkg/hash"
)

// printer renders a Hash in the same layout as Hash.String, coloured by
// role. With color.NoColor set the output is identical to Hash.String.
type printer struct {
	key   func(string, ...any) string
	attr  func(string, ...any) string
	value func(string, ...any) string
	typ   func(string, ...any) string
	sep   func(string, ...any) string
}

func newPrinter() *printer {
	return &printer{
		key:   color.New(color.FgCyan, color.Bold).SprintfFunc(),
		attr:  color.YellowString,
		value: color.RGB(8, 196, 16).SprintfFunc(),
		typ:   color.RGB(128, 128, 128).SprintfFunc(),
		sep:   color.RGB(255, 0, 196).SprintfFunc(),
	}
}

func (p *printer) sprint(h *hash.Hash) string {
	var sb strings.Builder
	p.tree(&sb, h, 0)
	return sb.String()
}

func (p *printer) tree(sb *strings.Builder, h *hash.Hash, depth int) {
	indent := strings.Repeat("  ", depth)
	for n := range h.Nodes() {
		sb.WriteString(indent + p.key("'%s'", n.Key()))
		for name, v := range n.Attributes().All() {
			sb.WriteString(" " + p.attr("%s=%q", name, hash.FormatValue(v)))
		}
		switch d := n.Value().Interface().(type) {
		case *hash.Hash:
			sb.WriteString(" " + p.sep("+") + "\n")
			p.tree(sb, d, depth+1)
		case []*hash.Hash:
			sb.WriteString(" " + p.sep("@") + "\n")
			for i, sub := range d {
				fmt.Fprintf(sb, "%s  [%d]\n", indent, i)
				p.tree(sb, sub, depth+2)
			}
		case *hash.Schema:
			fmt.Fprintf(sb, " %s %s %s\n", p.sep("=>"), p.value("%s", d.RootName()), p.typ("SCHEMA"))
			p.tree(sb, d.Parameters(), depth+1)
		default:
			fmt.Fprintf(sb, " %s %s %s\n", p.sep("=>"), p.value("%s", hash.FormatValue(n.Value())), p.typ("%s", n.Type()))
		}
	}
}

// writeYAML writes h as a YAML mapping in node order. Values carry their
// type as a local tag, e.g. "!INT32 1"; nodes with attributes become a
// mapping of "@name" entries plus "value".
func writeYAML(w io.Writer, h *hash.Hash) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlTree(h)); err != nil {
		return err
	}
	return enc.Close()
}

func yamlTree(h *hash.Hash) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for n := range h.Nodes() {
		v := yamlValue(n.Value())
		if attrs := n.Attributes(); attrs.Len() > 0 {
			wrapped := &yaml.Node{Kind: yaml.MappingNode}
			for name, av := range attrs.All() {
				wrapped.Content = append(wrapped.Content, yamlScalar("@"+name, "!!str"), yamlValue(av))
			}
			wrapped.Content = append(wrapped.Content, yamlScalar("value", ""), v)
			v = wrapped
		}
		m.Content = append(m.Content, yamlScalar(n.Key(), "!!str"), v)
	}
	return m
}

func yamlScalar(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: tag}
}

func yamlValue(v hash.Value) *yaml.Node {
	tag := "!" + v.Type().String()
	switch d := v.Interface().(type) {
	case *hash.Hash:
		return yamlTree(d)
	case []*hash.Hash:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag}
		for _, sub := range d {
			seq.Content = append(seq.Content, yamlTree(sub))
		}
		return seq
	case *hash.Schema:
		return &yaml.Node{Kind: yaml.MappingNode, Tag: tag, Content: []*yaml.Node{
			yamlScalar("root", ""), yamlScalar(d.RootName(), ""),
			yamlScalar("parameters", ""), yamlTree(d.Parameters()),
		}}
	case hash.ByteArray:
		return yamlScalar(base64.StdEncoding.EncodeToString(d.Bytes()), "!!binary")
	case *hash.NDArray:
		shape := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, e := range d.Shape() {
			shape.Content = append(shape.Content, yamlScalar(fmt.Sprint(e), ""))
		}
		return &yaml.Node{Kind: yaml.MappingNode, Tag: tag, Style: yaml.FlowStyle, Content: []*yaml.Node{
			yamlScalar("type", ""), yamlScalar(d.ElementType().String(), ""),
			yamlScalar("shape", ""), shape,
			yamlScalar("bigEndian", ""), yamlScalar(fmt.Sprint(d.BigEndian()), ""),
			yamlScalar("bytes", ""), yamlScalar(fmt.Sprint(d.ByteSize()), ""),
		}}
	case hash.None:
		return yamlScalar("", tag)
	case hash.Chars:
		return yamlScalar(string(d), tag)
	}
	if v.Type().IsVector() && v.Type() != hash.TypeVectorNone {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Style: yaml.FlowStyle}
		rv := reflect.ValueOf(v.Interface())
		for i := range rv.Len() {
			seq.Content = append(seq.Content, yamlScalar(hash.FormatValue(hash.MustValueOf(rv.Index(i).Interface())), ""))
		}
		return seq
	}
	return yamlScalar(hash.FormatValue(v), tag)
}
