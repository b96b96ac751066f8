package legacysym

import (
	"fmt"
	"os"
	"strings"

	"partcat/internal/faults"
	"partcat/internal/fileutil"
)

const (
	// Prefix is the fixed header emitted before the first definition.
	Prefix = "EESchema-LIBRARY Version 2.3\n#encoding utf-8\n"
	// Suffix is the fixed trailer emitted after the last definition.
	Suffix = "\n#End Library"

	defToken    = "DEF"
	endDefToken = "ENDDEF"
)

// Symbol is one DEF..ENDDEF definition.
type Symbol struct {
	Name string
	// Remainder is every byte after the name through the closing ENDDEF,
	// including the whitespace that separated the name from the rest.
	Remainder string
}

// String renders the definition as it appears in a library file.
func (s Symbol) String() string {
	return defToken + " " + s.Name + s.Remainder
}

// Library is an ordered list of legacy symbol definitions.
type Library struct {
	Symbols []Symbol
}

// New returns an empty library.
func New() *Library {
	return &Library{}
}

// Parse tokenizes text into a library. Text outside DEF..ENDDEF blocks is
// discarded.
func Parse(text string) (*Library, error) {
	tok := tokenizer{text: text}
	lib := New()
	for {
		start, _, ok := tok.seek(defToken)
		if !ok {
			return lib, nil
		}
		nameStart, nameEnd, ok := tok.next()
		if !ok || text[nameStart:nameEnd] == endDefToken {
			return nil, faults.Wrap(faults.ErrStructure, "", "parse legacy library",
				fmt.Sprintf("definition at offset %d has no name", start), nil)
		}
		_, end, ok := tok.seek(endDefToken)
		if !ok {
			return nil, faults.Wrap(faults.ErrStructure, "", "parse legacy library",
				fmt.Sprintf("definition %q at offset %d is not terminated by %s", text[nameStart:nameEnd], start, endDefToken), nil)
		}
		lib.Symbols = append(lib.Symbols, Symbol{
			Name:      text[nameStart:nameEnd],
			Remainder: text[nameEnd:end],
		})
	}
}

// ReadFile parses the library stored at path.
func ReadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy library %s: %w", path, err)
	}
	lib, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// WriteFile serializes the library to path, replacing any existing file.
func (l *Library) WriteFile(path string) error {
	return fileutil.WriteFileAtomic(path, l.Bytes(), 0o644)
}

// String serializes the library: prefix, definitions joined by newlines,
// suffix.
func (l *Library) String() string {
	var b strings.Builder
	b.WriteString(Prefix)
	for i, sym := range l.Symbols {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(sym.String())
	}
	b.WriteString(Suffix)
	return b.String()
}

// Bytes returns the serialized library.
func (l *Library) Bytes() []byte {
	return []byte(l.String())
}

// Len reports the number of definitions.
func (l *Library) Len() int {
	return len(l.Symbols)
}

// Merge returns a new library holding a's definitions followed by b's.
// Duplicate names are kept; use Duplicates to detect them.
func Merge(a, b *Library) *Library {
	out := &Library{Symbols: make([]Symbol, 0, a.Len()+b.Len())}
	out.Symbols = append(out.Symbols, a.Symbols...)
	out.Symbols = append(out.Symbols, b.Symbols...)
	return out
}

// Find returns the first definition called name.
func (l *Library) Find(name string) (Symbol, bool) {
	for _, sym := range l.Symbols {
		if sym.Name == name {
			return sym, true
		}
	}
	return Symbol{}, false
}

// Names lists definition names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Symbols))
	for i, sym := range l.Symbols {
		names[i] = sym.Name
	}
	return names
}

// Duplicates lists every name that occurs more than once, in order of the
// second occurrence.
func (l *Library) Duplicates() []string {
	seen := make(map[string]int, len(l.Symbols))
	var dups []string
	for _, sym := range l.Symbols {
		seen[sym.Name]++
		if seen[sym.Name] == 2 {
			dups = append(dups, sym.Name)
		}
	}
	return dups
}

// Rename changes the name of every definition called oldName and reports how
// many were renamed.
func (l *Library) Rename(oldName, newName string) int {
	n := 0
	for i := range l.Symbols {
		if l.Symbols[i].Name == oldName {
			l.Symbols[i].Name = newName
			n++
		}
	}
	return n
}
