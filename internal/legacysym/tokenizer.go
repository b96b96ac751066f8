package legacysym

import "unicode"

// tokenizer walks whitespace-delimited tokens and reports their byte spans.
type tokenizer struct {
	text string
	pos  int
}

func (t *tokenizer) next() (start, end int, ok bool) {
	i := t.pos
	for i < len(t.text) && isSpace(t.text[i]) {
		i++
	}
	if i >= len(t.text) {
		t.pos = i
		return 0, 0, false
	}
	start = i
	for i < len(t.text) && !isSpace(t.text[i]) {
		i++
	}
	t.pos = i
	return start, i, true
}

// seek advances past the next token equal to want.
func (t *tokenizer) seek(want string) (start, end int, ok bool) {
	for {
		start, end, ok = t.next()
		if !ok {
			return 0, 0, false
		}
		if t.text[start:end] == want {
			return start, end, true
		}
	}
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}
