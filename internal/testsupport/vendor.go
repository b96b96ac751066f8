package testsupport

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"testing/fstest"
)

// VendorPart describes one part inside a synthetic vendor archive.
type VendorPart struct {
	PartNumber   string
	Category     string
	Has3DModel   bool
	Version      string
	SymbolName   string
	Models       map[string]string
	ModelRefs    []string
	ExtraSymbols []string
}

// FolderName mirrors the vendor tool's folder naming for part numbers.
func (p VendorPart) FolderName() string {
	return strings.NewReplacer("(", "_", "/", "_").Replace(p.PartNumber)
}

// Info renders the part_info.txt content.
func (p VendorPart) Info() string {
	flag := "N"
	if p.Has3DModel {
		flag = "Y"
	}
	version := p.Version
	if version == "" {
		version = "1.2"
	}
	return fmt.Sprintf(`Manufacturer=Acme Semiconductor
PartNumber=%s
PartCategory=%s
PackageCategory=SOIC
PinCount=8
Version=%s
Released=2021-03-04T10:11:12
Downloaded=2021-05-06
3D=%s
`, p.PartNumber, p.Category, version, flag)
}

// LegacyLibrary renders the vendor .lib text, named by SymbolName or the
// folder name as the vendor tool does.
func (p VendorPart) LegacyLibrary() string {
	name := p.SymbolName
	if name == "" {
		name = p.FolderName()
	}
	var b strings.Builder
	b.WriteString("EESchema-LIBRARY Version 2.3\n#encoding utf-8\n")
	for _, sym := range append([]string{name}, p.ExtraSymbols...) {
		fmt.Fprintf(&b, "#\n# %s\n#\nDEF %s IC 0 30 Y Y 1 F N\nF0 \"IC\" 750 300 50 H V L CNN\nF1 \"%s\" 750 200 50 H V L CNN\nDRAW\nX VCC 1 0 0 200 R 50 50 0 0 P\nENDDEF\n", sym, sym, sym)
	}
	b.WriteString("#\n#End Library\n")
	return b.String()
}

// Footprint renders the vendor .kicad_mod text in the pre-6.0 layout.
func (p VendorPart) Footprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(module %q (layer F.Cu) (tedit 5E1C4A2B)\n", p.FolderName())
	b.WriteString("  (fp_text reference IC** (at 0 0) (layer F.SilkS)\n    (effects (font (size 1.27 1.27) (thickness 0.254)))\n  )\n")
	b.WriteString("  (pad 1 smd rect (at -3.3 -1.27) (size 1.5 0.6) (layers F.Cu F.Paste F.Mask))\n")
	for _, ref := range p.ModelRefs {
		fmt.Fprintf(&b, "  (model %q\n    (at (xyz 0 0 0))\n    (scale (xyz 1 1 1))\n    (rotate (xyz 0 0 0))\n  )\n", ref)
	}
	b.WriteString(")\n")
	return b.String()
}

// Files lays the part out the way vendor archives do: a part folder holding
// part_info.txt, a KiCad folder, and a 3D folder.
func (p VendorPart) Files() map[string]string {
	folder := p.FolderName()
	files := map[string]string{
		folder + "/part_info.txt":                  p.Info(),
		folder + "/KiCad/" + folder + ".lib":       p.LegacyLibrary(),
		folder + "/KiCad/" + folder + ".kicad_mod": p.Footprint(),
		folder + "/KiCad/" + folder + ".dcm":       "EESchema-DOCLIB  Version 2.0\n#End Doc Library\n",
	}
	for name, content := range p.Models {
		files[folder+"/3D/"+name] = content
	}
	return files
}

// MapFS builds an in-memory archive holding parts.
func MapFS(parts ...VendorPart) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, p := range parts {
		for name, content := range p.Files() {
			fsys[name] = &fstest.MapFile{Data: []byte(content), Mode: 0o644}
		}
	}
	return fsys
}

// WriteZip writes a vendor zip holding parts into dir and returns its path.
func WriteZip(t testing.TB, dir string, parts ...VendorPart) string {
	t.Helper()

	path := filepath.Join(dir, "LIB_parts.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	files := map[string]string{}
	for _, p := range parts {
		for name, content := range p.Files() {
			files[name] = content
		}
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}
