package sexpr

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed input with the byte offset of the problem.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sexpr: %s at offset %d", e.Msg, e.Offset)
}

// Parse reads exactly one top-level expression from data. Trailing
// whitespace is allowed; trailing content is not.
func Parse(data []byte) (*Node, error) {
	p := &parser{src: string(data)}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, &SyntaxError{Offset: p.pos, Msg: "empty input"}
	}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, &SyntaxError{Offset: p.pos, Msg: "unexpected trailing content"}
	}
	return node, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseNode() (*Node, error) {
	switch p.src[p.pos] {
	case '(':
		return p.parseList()
	case ')':
		return nil, &SyntaxError{Offset: p.pos, Msg: "unexpected ')'"}
	case '"':
		return p.parseString()
	default:
		return p.parseSymbol(), nil
	}
}

func (p *parser) parseList() (*Node, error) {
	start := p.pos
	p.pos++
	node := List()
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, &SyntaxError{Offset: start, Msg: "unterminated list"}
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return node, nil
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		node.Items = append(node.Items, child)
	}
}

func (p *parser) parseString() (*Node, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return String(b.String()), nil
		case '\\':
			if p.pos+1 >= len(p.src) {
				return nil, &SyntaxError{Offset: p.pos, Msg: "dangling escape"}
			}
			p.pos++
			switch esc := p.src[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, &SyntaxError{Offset: start, Msg: "unterminated string"}
}

func (p *parser) parseSymbol() *Node {
	start := p.pos
	for p.pos < len(p.src) && !isDelimiter(p.src[p.pos]) {
		p.pos++
	}
	return Symbol(p.src[start:p.pos])
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDelimiter(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '"'
}
