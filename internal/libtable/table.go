package libtable

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"partcat/internal/fileutil"
	"partcat/internal/kicad/sexpr"
)

// Kind is the table flavour, which is also the s-expression head.
type Kind string

const (
	KindFootprint Kind = "fp_lib_table"
	KindSymbol    Kind = "sym_lib_table"
)

// File names KiCad expects at the project root.
const (
	FootprintFileName = "fp-lib-table"
	SymbolFileName    = "sym-lib-table"
)

// Entry type tags.
const (
	TypeKiCad  = "KiCad"
	TypeLegacy = "Legacy"
)

// ProjectVar is the placeholder KiCad expands to the project directory.
const ProjectVar = "${KIPRJMOD}"

// Entry is one library row. Extra holds the row's other child nodes, such
// as (disabled) or (hidden), in file order so a rewrite keeps them.
type Entry struct {
	Name    string
	Type    string
	URI     string
	Options string
	Descr   string
	Extra   []*sexpr.Node
}

// Location returns the URI with the project placeholder stripped, or the URI
// unchanged when it does not start with the placeholder.
func (e Entry) Location() string {
	return strings.TrimPrefix(strings.TrimPrefix(e.URI, ProjectVar), "/")
}

// Table is an ordered set of uniquely named entries bound to a file.
type Table struct {
	Kind    Kind
	Path    string
	Version string
	entries []Entry
}

// New returns an empty table of kind bound to path.
func New(kind Kind, path string) *Table {
	return &Table{Kind: kind, Path: path}
}

// FileName returns the on-disk name for tables of kind.
func FileName(kind Kind) string {
	if kind == KindSymbol {
		return SymbolFileName
	}
	return FootprintFileName
}

// ProjectPath returns the table path of kind inside projectDir.
func ProjectPath(projectDir string, kind Kind) string {
	return filepath.Join(projectDir, FileName(kind))
}

// LoadOrCreate parses the table at path, or returns an empty table of kind
// bound to path when no file exists.
func LoadOrCreate(kind Kind, path string) (*Table, error) {
	t, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(kind, path), nil
	}
	if err != nil {
		return nil, err
	}
	if t.Kind != kind {
		return nil, fmt.Errorf("library table %s: expected %s, found %s", path, kind, t.Kind)
	}
	return t, nil
}

// Load parses the table at path. A missing file is reported with
// fs.ErrNotExist in the chain.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Parse decodes table text.
func Parse(data []byte) (*Table, error) {
	root, err := sexpr.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse library table: %w", err)
	}
	kind := Kind(root.Head())
	if kind != KindFootprint && kind != KindSymbol {
		return nil, fmt.Errorf("parse library table: unexpected top-level node %q", root.Head())
	}
	t := &Table{Kind: kind}
	if v := root.Child("version"); v != nil {
		t.Version, _ = v.Arg(0)
	}
	for _, lib := range root.Children("lib") {
		entry := Entry{
			Name:    field(lib, "name"),
			Type:    field(lib, "type"),
			URI:     field(lib, "uri"),
			Options: field(lib, "options"),
			Descr:   field(lib, "descr"),
			Extra:   extraNodes(lib),
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("parse library table: entry without name: %s", lib.String())
		}
		if _, dup := t.Find(entry.Name); dup {
			return nil, fmt.Errorf("parse library table: duplicate entry %q", entry.Name)
		}
		t.entries = append(t.entries, entry)
	}
	return t, nil
}

var rowFields = map[string]bool{"name": true, "type": true, "uri": true, "options": true, "descr": true}

func extraNodes(lib *sexpr.Node) []*sexpr.Node {
	var extra []*sexpr.Node
	for _, item := range lib.Items[1:] {
		if !rowFields[item.Head()] {
			extra = append(extra, item.Clone())
		}
	}
	return extra
}

func field(lib *sexpr.Node, name string) string {
	if node := lib.Child(name); node != nil {
		v, _ := node.Arg(0)
		return v
	}
	return ""
}

// Find returns the entry called name.
func (t *Table) Find(name string) (Entry, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Ensure appends an entry called name pointing at location (relative to the
// project root) unless one already exists. The existing or new entry is
// returned together with whether it was appended.
func (t *Table) Ensure(location, name string, legacy bool) (Entry, bool) {
	if existing, ok := t.Find(name); ok {
		return existing, false
	}
	entry := Entry{
		Name: name,
		Type: TypeKiCad,
		URI:  ProjectVar + "/" + strings.TrimPrefix(path.Clean(filepath.ToSlash(location)), "/"),
	}
	if legacy {
		entry.Type = TypeLegacy
	}
	t.entries = append(t.entries, entry)
	return entry, true
}

// Remove drops the named entries and reports how many were removed.
func (t *Table) Remove(names ...string) int {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := t.entries[:0]
	removed := 0
	for _, e := range t.entries {
		if _, ok := drop[e.Name]; ok {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	return removed
}

// Entries returns a copy of the rows in table order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len reports the number of rows.
func (t *Table) Len() int {
	return len(t.entries)
}

// Bytes serializes the table in KiCad's one-row-per-line layout.
func (t *Table) Bytes() []byte {
	var b strings.Builder
	b.WriteString("(" + string(t.Kind) + "\n")
	if t.Version != "" {
		b.WriteString("  " + sexpr.Form("version", sexpr.Symbol(t.Version)).String() + "\n")
	}
	for _, e := range t.entries {
		row := sexpr.Form("lib",
			sexpr.Form("name", sexpr.String(e.Name)),
			sexpr.Form("type", sexpr.String(e.Type)),
			sexpr.Form("uri", sexpr.String(e.URI)),
			sexpr.Form("options", sexpr.String(e.Options)),
			sexpr.Form("descr", sexpr.String(e.Descr)),
		)
		row.Append(e.Extra...)
		b.WriteString("  " + row.String() + "\n")
	}
	b.WriteString(")\n")
	return []byte(b.String())
}

// Save rewrites the bound file.
func (t *Table) Save() error {
	if t.Path == "" {
		return errors.New("save library table: no path bound")
	}
	return fileutil.WriteFileAtomic(t.Path, t.Bytes(), 0o644)
}

// ResolveURI replaces the project placeholder in uri with projectRoot and
// returns a native path.
func ResolveURI(projectRoot, uri string) string {
	if rest, ok := strings.CutPrefix(uri, ProjectVar); ok {
		return filepath.Join(projectRoot, filepath.FromSlash(strings.TrimPrefix(rest, "/")))
	}
	return filepath.FromSlash(uri)
}
