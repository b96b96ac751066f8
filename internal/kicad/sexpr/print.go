package sexpr

import (
	"strings"
)

const (
	indentUnit  = "  "
	inlineWidth = 99
)

// Bytes prints n followed by a trailing newline.
func (n *Node) Bytes() []byte {
	var b strings.Builder
	writeNode(&b, n, 0)
	b.WriteByte('\n')
	return []byte(b.String())
}

// String prints n on a single line.
func (n *Node) String() string {
	var b strings.Builder
	writeInline(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	if !n.IsList() || fitsInline(n, depth) {
		writeInline(b, n)
		return
	}
	b.WriteByte('(')
	i := 0
	for ; i < len(n.Items) && !n.Items[i].IsList(); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeAtom(b, n.Items[i])
	}
	for ; i < len(n.Items); i++ {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(indentUnit, depth+1))
		writeNode(b, n.Items[i], depth+1)
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(indentUnit, depth))
	b.WriteByte(')')
}

func fitsInline(n *Node, depth int) bool {
	for _, item := range n.Items {
		if !item.IsList() {
			continue
		}
		for _, nested := range item.Items {
			if nested.IsList() {
				return false
			}
		}
	}
	return len(indentUnit)*depth+len(n.String()) <= inlineWidth
}

func writeInline(b *strings.Builder, n *Node) {
	if !n.IsList() {
		writeAtom(b, n)
		return
	}
	b.WriteByte('(')
	for i, item := range n.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeInline(b, item)
	}
	b.WriteByte(')')
}

func writeAtom(b *strings.Builder, n *Node) {
	if !n.Quoted && n.Value != "" && !needsQuoting(n.Value) {
		b.WriteString(n.Value)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(n.Value); i++ {
		switch c := n.Value[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

func needsQuoting(v string) bool {
	for i := 0; i < len(v); i++ {
		if isDelimiter(v[i]) || v[i] == '\\' {
			return true
		}
	}
	return false
}
