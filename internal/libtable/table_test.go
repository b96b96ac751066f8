package libtable

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const symbolTableText = `(sym_lib_table
  (lib (name "Extern_IC")(type "KiCad")(uri "${KIPRJMOD}/parts/Extern/symbols/IC.kicad_sym")(options "")(descr ""))
  (lib (name "LEGACY_Extern_IC")(type "Legacy")(uri "${KIPRJMOD}/parts/Extern/symbols/LEGACY_IC.lib")(options "")(descr "vendor import"))
)
`

func TestParse(t *testing.T) {
	table, err := Parse([]byte(symbolTableText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Kind != KindSymbol || table.Len() != 2 {
		t.Fatalf("kind=%s len=%d", table.Kind, table.Len())
	}
	legacy, ok := table.Find("LEGACY_Extern_IC")
	if !ok {
		t.Fatal("legacy entry missing")
	}
	if legacy.Type != TypeLegacy || legacy.Descr != "vendor import" {
		t.Fatalf("legacy entry = %+v", legacy)
	}
	if legacy.Location() != "parts/Extern/symbols/LEGACY_IC.lib" {
		t.Fatalf("location = %q", legacy.Location())
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	table := New(KindFootprint, "")
	first, added := table.Ensure("parts/Extern/footprints/IC.pretty", "Extern_IC", false)
	if !added {
		t.Fatal("first Ensure should append")
	}
	if first.URI != "${KIPRJMOD}/parts/Extern/footprints/IC.pretty" || first.Type != TypeKiCad {
		t.Fatalf("entry = %+v", first)
	}

	second, added := table.Ensure("parts/Other/footprints/IC.pretty", "Extern_IC", true)
	if added {
		t.Fatal("second Ensure should be a no-op")
	}
	if table.Len() != 1 {
		t.Fatalf("len = %d after repeated Ensure", table.Len())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("existing entry changed: %+v vs %+v", first, second)
	}

	legacy, _ := table.Ensure("parts/Extern/symbols/LEGACY_IC.lib", "LEGACY_Extern_IC", true)
	if legacy.Type != TypeLegacy {
		t.Fatalf("legacy type = %q", legacy.Type)
	}
}

func TestLoadOrCreateAndSave(t *testing.T) {
	dir := t.TempDir()
	path := ProjectPath(dir, KindSymbol)

	table, err := LoadOrCreate(KindSymbol, path)
	if err != nil {
		t.Fatalf("LoadOrCreate on missing file: %v", err)
	}
	if table.Len() != 0 || table.Path != path {
		t.Fatalf("unexpected fresh table: %+v", table)
	}
	table.Ensure("parts/Extern/symbols/IC.kicad_sym", "Extern_IC", false)
	table.Ensure("parts/Extern/symbols/LEGACY_IC.lib", "LEGACY_Extern_IC", true)
	if err := table.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "(sym_lib_table\n") {
		t.Fatalf("unexpected layout:\n%s", data)
	}
	if !strings.Contains(string(data), `(lib (name "Extern_IC") (type "KiCad") (uri "${KIPRJMOD}/parts/Extern/symbols/IC.kicad_sym") (options "") (descr ""))`) {
		t.Fatalf("row not written as expected:\n%s", data)
	}

	reloaded, err := LoadOrCreate(KindSymbol, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(reloaded.Entries(), table.Entries()) {
		t.Fatalf("entries differ after reload:\n%+v\n%+v", reloaded.Entries(), table.Entries())
	}

	if _, err := LoadOrCreate(KindFootprint, path); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}

func TestRemove(t *testing.T) {
	table, err := Parse([]byte(symbolTableText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n := table.Remove("LEGACY_Extern_IC", "absent"); n != 1 {
		t.Fatalf("removed %d", n)
	}
	if _, ok := table.Find("LEGACY_Extern_IC"); ok {
		t.Fatal("entry still present")
	}
	if table.Len() != 1 {
		t.Fatalf("len = %d", table.Len())
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	text := `(fp_lib_table (lib (name "A")(type "KiCad")(uri "x")) (lib (name "A")(type "KiCad")(uri "y")))`
	if _, err := Parse([]byte(text)); err == nil {
		t.Fatal("expected duplicate entry error")
	}
}

func TestResolveURI(t *testing.T) {
	got := ResolveURI("/work/board", "${KIPRJMOD}/parts/Extern/symbols/IC.kicad_sym")
	want := filepath.Join("/work/board", "parts", "Extern", "symbols", "IC.kicad_sym")
	if got != want {
		t.Fatalf("ResolveURI = %q, want %q", got, want)
	}
	if got := ResolveURI("/work/board", "/abs/lib.kicad_sym"); got != filepath.FromSlash("/abs/lib.kicad_sym") {
		t.Fatalf("absolute URI changed: %q", got)
	}
}

func TestRewriteKeepsRowFlags(t *testing.T) {
	const text = `(fp_lib_table
  (version 7)
  (lib (name "A")(type "KiCad")(uri "${KIPRJMOD}/a.pretty")(options "")(descr "")(disabled))
  (lib (name "B")(type "KiCad")(uri "${KIPRJMOD}/b.pretty")(options "")(descr "")(hidden)(disabled))
)
`
	table, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	table.Ensure("parts/Extern/footprints/IC.pretty", "Extern_IC", false)

	out := string(table.Bytes())
	for _, want := range []string{
		`(lib (name "A") (type "KiCad") (uri "${KIPRJMOD}/a.pretty") (options "") (descr "") (disabled))`,
		`(descr "") (hidden) (disabled))`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rewritten table lost row flags, want %q in:\n%s", want, out)
		}
	}

	again, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	b, _ := again.Find("B")
	if len(b.Extra) != 2 || b.Extra[0].Head() != "hidden" || b.Extra[1].Head() != "disabled" {
		t.Fatalf("B extra = %+v", b.Extra)
	}
	if fresh, _ := again.Find("Extern_IC"); len(fresh.Extra) != 0 {
		t.Fatalf("new row gained flags: %+v", fresh.Extra)
	}
}
