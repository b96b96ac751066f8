package kicad

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"partcat/internal/fileutil"
	"partcat/internal/kicad/sexpr"
)

const symbolLibHead = "kicad_symbol_lib"

// Property keys every symbol carries.
const (
	PropertyReference = "Reference"
	PropertyValue     = "Value"
	PropertyFootprint = "Footprint"
	PropertyDatasheet = "Datasheet"
)

// SymbolLib is a parsed .kicad_sym document bound to the file it was read
// from or will be written to.
type SymbolLib struct {
	Path string
	root *sexpr.Node
}

// NewSymbolLib returns an empty library stamped with version and generator.
func NewSymbolLib(version, generator string) *SymbolLib {
	return &SymbolLib{root: sexpr.Form(symbolLibHead,
		sexpr.Form("version", sexpr.Symbol(version)),
		sexpr.Form("generator", sexpr.Symbol(generator)),
	)}
}

// ParseSymbolLib parses library text.
func ParseSymbolLib(data []byte) (*SymbolLib, error) {
	root, err := sexpr.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse symbol library: %w", err)
	}
	if root.Head() != symbolLibHead {
		return nil, fmt.Errorf("parse symbol library: unexpected top-level node %q", root.Head())
	}
	return &SymbolLib{root: root}, nil
}

// LoadSymbolLib reads and parses the library at path. A missing file is
// reported with fs.ErrNotExist in the chain.
func LoadSymbolLib(path string) (*SymbolLib, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol library: %w", err)
	}
	lib, err := ParseSymbolLib(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lib.Path = path
	return lib, nil
}

// Version returns the library version stamp.
func (l *SymbolLib) Version() string {
	if node := l.root.Child("version"); node != nil {
		v, _ := node.Arg(0)
		return v
	}
	return ""
}

// Symbols returns the top-level symbols in file order.
func (l *SymbolLib) Symbols() []*Symbol {
	nodes := l.root.Children("symbol")
	out := make([]*Symbol, len(nodes))
	for i, node := range nodes {
		out[i] = &Symbol{node: node}
	}
	return out
}

// Names lists top-level symbol names in file order.
func (l *SymbolLib) Names() []string {
	syms := l.Symbols()
	names := make([]string, len(syms))
	for i, sym := range syms {
		names[i] = sym.Name()
	}
	return names
}

// Find returns the first symbol called name, or nil.
func (l *SymbolLib) Find(name string) *Symbol {
	for _, sym := range l.Symbols() {
		if sym.Name() == name {
			return sym
		}
	}
	return nil
}

// Append adds symbols to the end of the library in the given order.
func (l *SymbolLib) Append(symbols ...*Symbol) {
	for _, sym := range symbols {
		l.root.Append(sym.node)
	}
}

// Bytes serializes the library.
func (l *SymbolLib) Bytes() []byte {
	return l.root.Bytes()
}

// Save writes the library to its bound path.
func (l *SymbolLib) Save() error {
	if l.Path == "" {
		return errors.New("save symbol library: no path bound")
	}
	return fileutil.WriteFileAtomic(l.Path, l.Bytes(), 0o644)
}

// Symbol is one top-level symbol definition.
type Symbol struct {
	node *sexpr.Node
}

// NewSymbol returns a minimal symbol with the four mandatory properties.
func NewSymbol(name, reference, value, footprint string) *Symbol {
	sym := &Symbol{node: sexpr.Form("symbol", sexpr.String(name),
		sexpr.Form("in_bom", sexpr.Symbol("yes")),
		sexpr.Form("on_board", sexpr.Symbol("yes")),
	)}
	sym.SetProperty(PropertyReference, reference)
	sym.SetProperty(PropertyValue, value)
	sym.SetProperty(PropertyFootprint, footprint)
	sym.SetProperty(PropertyDatasheet, "")
	return sym
}

// Name returns the symbol's library name.
func (s *Symbol) Name() string {
	name, _ := s.node.Arg(0)
	return name
}

// Property returns the value of the property called key.
func (s *Symbol) Property(key string) (string, bool) {
	if prop := s.property(key); prop != nil {
		return prop.Arg(1)
	}
	return "", false
}

// SetProperty sets the property called key, appending it after the last
// existing property when absent.
func (s *Symbol) SetProperty(key, value string) {
	if prop := s.property(key); prop != nil {
		prop.SetArg(1, sexpr.String(value))
		return
	}
	props := s.node.Children("property")
	prop := sexpr.Form("property", sexpr.String(key), sexpr.String(value),
		sexpr.Form("id", sexpr.Symbol(strconv.Itoa(len(props)))),
		sexpr.Form("at", sexpr.Symbol("0"), sexpr.Symbol("0"), sexpr.Symbol("0")),
		sexpr.Form("effects", sexpr.Form("font", sexpr.Form("size", sexpr.Symbol("1.27"), sexpr.Symbol("1.27")))),
	)
	if len(props) >= 2 {
		prop.Child("effects").Append(sexpr.Symbol("hide"))
	}
	pos := len(s.node.Items)
	if len(props) > 0 {
		last := props[len(props)-1]
		for i, item := range s.node.Items {
			if item == last {
				pos = i + 1
				break
			}
		}
	}
	items := append([]*sexpr.Node{}, s.node.Items[:pos]...)
	items = append(items, prop)
	s.node.Items = append(items, s.node.Items[pos:]...)
}

func (s *Symbol) property(key string) *sexpr.Node {
	for _, prop := range s.node.Children("property") {
		if name, ok := prop.Arg(0); ok && name == key {
			return prop
		}
	}
	return nil
}
