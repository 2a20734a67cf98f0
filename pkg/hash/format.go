package hash

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders v as text. Vectors are comma separated and complex
// numbers are written as (re,im).
func FormatValue(v Value) string {
	switch d := v.data.(type) {
	case bool:
		return strconv.FormatBool(d)
	case Char:
		return string(rune(d))
	case Chars:
		return string(d)
	case int8:
		return strconv.FormatInt(int64(d), 10)
	case uint8:
		return strconv.FormatUint(uint64(d), 10)
	case int16:
		return strconv.FormatInt(int64(d), 10)
	case uint16:
		return strconv.FormatUint(uint64(d), 10)
	case int32:
		return strconv.FormatInt(int64(d), 10)
	case uint32:
		return strconv.FormatUint(uint64(d), 10)
	case int64:
		return strconv.FormatInt(d, 10)
	case uint64:
		return strconv.FormatUint(d, 10)
	case float32:
		return strconv.FormatFloat(float64(d), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)
	case complex64:
		return "(" + strconv.FormatFloat(float64(real(d)), 'g', -1, 32) + "," +
			strconv.FormatFloat(float64(imag(d)), 'g', -1, 32) + ")"
	case complex128:
		return "(" + strconv.FormatFloat(real(d), 'g', -1, 64) + "," +
			strconv.FormatFloat(imag(d), 'g', -1, 64) + ")"
	case string:
		return d
	case []bool:
		return joinFormatted(d)
	case []int8:
		return joinFormatted(d)
	case []uint8:
		return joinFormatted(d)
	case []int16:
		return joinFormatted(d)
	case []uint16:
		return joinFormatted(d)
	case []int32:
		return joinFormatted(d)
	case []uint32:
		return joinFormatted(d)
	case []int64:
		return joinFormatted(d)
	case []uint64:
		return joinFormatted(d)
	case []float32:
		return joinFormatted(d)
	case []float64:
		return joinFormatted(d)
	case []complex64:
		return joinFormatted(d)
	case []complex128:
		return joinFormatted(d)
	case []string:
		return strings.Join(d, ",")
	case None, []None:
		return ""
	case *Hash:
		return d.String()
	case []*Hash:
		return fmt.Sprintf("%d trees", len(d))
	case *Schema:
		return "Schema " + d.rootName
	case ByteArray:
		return fmt.Sprintf("%d bytes", d.Len())
	case *NDArray:
		return d.String()
	default:
		return fmt.Sprint(d)
	}
}

func joinFormatted[T any](values []T) string {
	parts := make([]string, len(values))
	for i, x := range values {
		parts[i] = FormatValue(MustValueOf(x))
	}
	return strings.Join(parts, ",")
}

// String renders h as an indented listing, one node per line:
//
//	'key' attr="value" => value TYPE
//
// Nested trees are introduced with '+' and vectors of trees with '@'.
func (h *Hash) String() string {
	var sb strings.Builder
	h.format(&sb, 0)
	return sb.String()
}

func (h *Hash) format(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range h.nodes {
		fmt.Fprintf(sb, "%s'%s'", indent, n.key)
		for name, v := range n.attrs.All() {
			fmt.Fprintf(sb, " %s=%q", name, FormatValue(v))
		}
		switch d := n.value.data.(type) {
		case *Hash:
			sb.WriteString(" +\n")
			d.format(sb, depth+1)
		case []*Hash:
			sb.WriteString(" @\n")
			for i, sub := range d {
				fmt.Fprintf(sb, "%s[%d]\n", indent+"  ", i)
				sub.format(sb, depth+2)
			}
		case *Schema:
			fmt.Fprintf(sb, " => %s SCHEMA\n", d.rootName)
			d.params.format(sb, depth+1)
		default:
			fmt.Fprintf(sb, " => %s %s\n", FormatValue(n.value), n.value.typ)
		}
	}
}
