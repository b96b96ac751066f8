package importer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"partcat/internal/archive"
	"partcat/internal/config"
	"partcat/internal/faults"
	"partcat/internal/history"
	"partcat/internal/importer"
	"partcat/internal/kicad"
	"partcat/internal/legacysym"
	"partcat/internal/libtable"
	"partcat/internal/projectlock"
	"partcat/internal/testsupport"
)

func xyz123() testsupport.VendorPart {
	return testsupport.VendorPart{
		PartNumber: "XYZ123",
		Category:   "IC",
		Has3DModel: true,
		Models:     map[string]string{"XYZ123.stp": "ISO-10303-21;"},
		ModelRefs:  []string{`C:\vendor\models\XYZ123.stp`},
	}
}

func extract(t *testing.T, parts ...testsupport.VendorPart) []archive.Bundle {
	t.Helper()
	bundles, err := archive.Extract(testsupport.MapFS(parts...))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return bundles
}

func newImporter(t *testing.T, cfg *config.Config, root string) *importer.Importer {
	t.Helper()
	n := 0
	return importer.New(cfg, root, nil, importer.WithRunIDFunc(func() string {
		n++
		return "run-" + string(rune('0'+n))
	}))
}

func TestImportEndToEnd(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t)
	imp := newImporter(t, cfg, root)

	result, err := imp.Import(context.Background(), extract(t, xyz123()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.RunID != "run-1" {
		t.Fatalf("run id = %q", result.RunID)
	}
	if len(result.Parts) != 1 || result.Parts[0].Library != "Extern_IC" {
		t.Fatalf("parts = %+v", result.Parts)
	}

	fpPath := filepath.Join(root, "parts", "Extern", "footprints", "IC.pretty", "XYZ123.kicad_mod")
	fp, err := kicad.ParseFootprint(testsupport.ReadFile(t, root, "parts/Extern/footprints/IC.pretty/XYZ123.kicad_mod"))
	if err != nil {
		t.Fatalf("parse written footprint %s: %v", fpPath, err)
	}
	if fp.Name() != "XYZ123" {
		t.Fatalf("footprint name = %q", fp.Name())
	}
	if fp.Version() != "20210926" {
		t.Fatalf("footprint version = %q", fp.Version())
	}
	wantModel := "${KIPRJMOD}/parts/Extern/3dmodels/IC.3dshapes/XYZ123/XYZ123.stp"
	if got := fp.ModelPaths(); len(got) != 1 || got[0] != wantModel {
		t.Fatalf("model paths = %v, want [%s]", got, wantModel)
	}
	if got := testsupport.ReadFile(t, root, "parts/Extern/3dmodels/IC.3dshapes/XYZ123/XYZ123.stp"); got != "ISO-10303-21;" {
		t.Fatalf("model content = %q", got)
	}

	legacy, err := legacysym.ReadFile(filepath.Join(root, "parts", "Extern", "symbols", "LEGACY_IC.lib"))
	if err != nil {
		t.Fatalf("read legacy library: %v", err)
	}
	if names := legacy.Names(); len(names) != 1 || names[0] != "XYZ123" {
		t.Fatalf("legacy names = %v", names)
	}

	symbols, err := kicad.LoadSymbolLib(filepath.Join(root, "parts", "Extern", "symbols", "IC.kicad_sym"))
	if err != nil {
		t.Fatalf("load symbol library: %v", err)
	}
	if symbols.Version() != "20211014" || len(symbols.Symbols()) != 0 {
		t.Fatalf("symbol library version=%q symbols=%v", symbols.Version(), symbols.Names())
	}

	fpTable, err := libtable.Load(libtable.ProjectPath(root, libtable.KindFootprint))
	if err != nil {
		t.Fatalf("load fp-lib-table: %v", err)
	}
	entry, ok := fpTable.Find("Extern_IC")
	if !ok || entry.URI != "${KIPRJMOD}/parts/Extern/footprints/IC.pretty" || entry.Type != libtable.TypeKiCad {
		t.Fatalf("fp entry = %+v ok=%v", entry, ok)
	}

	symTable, err := libtable.Load(libtable.ProjectPath(root, libtable.KindSymbol))
	if err != nil {
		t.Fatalf("load sym-lib-table: %v", err)
	}
	if symTable.Len() != 2 {
		t.Fatalf("sym-lib-table entries = %+v", symTable.Entries())
	}
	legacyEntry, ok := symTable.Find("LEGACY_Extern_IC")
	if !ok || legacyEntry.Type != libtable.TypeLegacy || legacyEntry.URI != "${KIPRJMOD}/parts/Extern/symbols/LEGACY_IC.lib" {
		t.Fatalf("legacy entry = %+v ok=%v", legacyEntry, ok)
	}
	if len(result.LegacyLibraries) != 1 || result.LegacyLibraries[0].Name != "LEGACY_Extern_IC" {
		t.Fatalf("legacy libraries = %+v", result.LegacyLibraries)
	}

	if _, err := os.Stat(filepath.Join(cfg.StagingRoot(root), result.RunID)); !os.IsNotExist(err) {
		t.Fatalf("expected staging area to be discarded, stat err = %v", err)
	}

	store, err := history.Open(context.Background(), cfg.HistoryPath(root))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	events, err := store.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(events) != 1 || events[0].PartNumber != "XYZ123" || events[0].Version != "1.2.0" || events[0].Files != 2 {
		t.Fatalf("history events = %+v", events)
	}
}

func TestImportRejectsExistingFootprint(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	if _, err := imp.Import(context.Background(), extract(t, xyz123())); err != nil {
		t.Fatalf("first import: %v", err)
	}
	before := testsupport.Snapshot(t, root, cfg.Staging.DirName)

	other := testsupport.VendorPart{PartNumber: "ABC9", Category: "IC"}
	_, err := imp.Import(context.Background(), extract(t, other, xyz123()))
	if !errors.Is(err, faults.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if !strings.Contains(err.Error(), "XYZ123") {
		t.Fatalf("error should name the part: %v", err)
	}
	after := testsupport.Snapshot(t, root, cfg.Staging.DirName)
	if len(after) != len(before) {
		t.Fatalf("project changed: before %v after %v", testsupport.SortedKeys(before), testsupport.SortedKeys(after))
	}
	for name, content := range before {
		if after[name] != content {
			t.Fatalf("file %s changed after rejected import", name)
		}
	}
}

func TestImportRejectsDuplicateWithinRun(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	first := testsupport.VendorPart{PartNumber: "MCP1402T-E/OT", Category: "Gate Driver"}
	bundles := extract(t, first)
	bundles = append(bundles, bundles[0])

	if _, err := imp.Import(context.Background(), bundles); !errors.Is(err, faults.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "parts")); !os.IsNotExist(err) {
		t.Fatalf("expected no parts directory, stat err = %v", err)
	}
}

func TestImportMissingModelWritesNothing(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	part := xyz123()
	part.ModelRefs = []string{"XYZ123.stp", "XYZ123_alt.wrl"}
	_, err := imp.Import(context.Background(), extract(t, part))
	if !errors.Is(err, faults.ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if !strings.Contains(err.Error(), "XYZ123_alt.wrl") {
		t.Fatalf("error should name the missing model: %v", err)
	}
	for _, name := range []string{"parts", libtable.FootprintFileName, libtable.SymbolFileName} {
		if _, err := os.Stat(filepath.Join(root, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be absent, stat err = %v", name, err)
		}
	}
}

func TestImportSkipsModelsWhenNotFlagged(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	part := xyz123()
	part.Has3DModel = false
	part.ModelRefs = []string{"not-shipped.stp"}
	result, err := imp.Import(context.Background(), extract(t, part))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.Parts[0].Models) != 0 {
		t.Fatalf("models = %v", result.Parts[0].Models)
	}
	if _, err := os.Stat(filepath.Join(root, "parts", "Extern", "3dmodels", "IC.3dshapes", "XYZ123", "XYZ123.stp")); !os.IsNotExist(err) {
		t.Fatalf("model should not be written, stat err = %v", err)
	}
}

func TestImportRejectsMultipleDefinitions(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	part := testsupport.VendorPart{PartNumber: "XYZ123", Category: "IC", ExtraSymbols: []string{"XYZ123_B"}}
	if _, err := imp.Import(context.Background(), extract(t, part)); !errors.Is(err, faults.ErrStructure) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestImportDuplicateSymbolNames(t *testing.T) {
	seed := func(t *testing.T, root string) {
		t.Helper()
		lib := "EESchema-LIBRARY Version 2.3\n#encoding utf-8\nDEF XYZ123 U 0 40 Y Y 1 F N\nENDDEF\n#End Library"
		testsupport.WriteFile(t, root, "parts/Extern/symbols/LEGACY_IC.lib", lib)
	}
	part := testsupport.VendorPart{PartNumber: "XYZ123", Category: "IC"}

	t.Run("warns by default", func(t *testing.T) {
		root := t.TempDir()
		seed(t, root)
		imp := newImporter(t, testsupport.NewConfig(t, testsupport.WithoutHistory()), root)
		result, err := imp.Import(context.Background(), extract(t, part))
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "XYZ123") {
			t.Fatalf("warnings = %v", result.Warnings)
		}
		legacy, err := legacysym.ReadFile(filepath.Join(root, "parts", "Extern", "symbols", "LEGACY_IC.lib"))
		if err != nil {
			t.Fatalf("read legacy: %v", err)
		}
		if legacy.Len() != 2 {
			t.Fatalf("legacy symbols = %v", legacy.Names())
		}
	})

	t.Run("rejects when configured", func(t *testing.T) {
		root := t.TempDir()
		seed(t, root)
		imp := newImporter(t, testsupport.NewConfig(t, testsupport.WithoutHistory(), testsupport.WithRejectDuplicateSymbols()), root)
		if _, err := imp.Import(context.Background(), extract(t, part)); !errors.Is(err, faults.ErrDuplicate) {
			t.Fatalf("expected duplicate error, got %v", err)
		}
	})
}

func TestImportSameCategoryKeepsSingleEntries(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	imp := newImporter(t, cfg, root)

	if _, err := imp.Import(context.Background(), extract(t, xyz123())); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := imp.Import(context.Background(), extract(t, testsupport.VendorPart{PartNumber: "TLP292(TPL,E", Category: "IC"}))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(result.LegacyLibraries) != 0 {
		t.Fatalf("legacy entry should already exist, got %+v", result.LegacyLibraries)
	}

	symTable, err := libtable.Load(libtable.ProjectPath(root, libtable.KindSymbol))
	if err != nil {
		t.Fatalf("load sym-lib-table: %v", err)
	}
	if symTable.Len() != 2 {
		t.Fatalf("sym-lib-table entries = %+v", symTable.Entries())
	}
	legacy, err := legacysym.ReadFile(filepath.Join(root, "parts", "Extern", "symbols", "LEGACY_IC.lib"))
	if err != nil {
		t.Fatalf("read legacy: %v", err)
	}
	if names := legacy.Names(); len(names) != 2 || names[0] != "XYZ123" || names[1] != "TLP292(TPL,E" {
		t.Fatalf("legacy names = %v", names)
	}
	testsupport.ReadFile(t, root, "parts/Extern/footprints/IC.pretty/TLP292(TPL,E.kicad_mod")
}

func TestImportHonoursGroup(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory(), testsupport.WithGroup("Vendor"))
	imp := newImporter(t, cfg, root)

	if _, err := imp.Import(context.Background(), extract(t, testsupport.VendorPart{PartNumber: "XYZ123", Category: "Power Supply"})); err != nil {
		t.Fatalf("Import: %v", err)
	}
	fpTable, err := libtable.Load(libtable.ProjectPath(root, libtable.KindFootprint))
	if err != nil {
		t.Fatalf("load fp-lib-table: %v", err)
	}
	if _, ok := fpTable.Find("Vendor_Power_Supply"); !ok {
		t.Fatalf("fp entries = %+v", fpTable.Entries())
	}
}

func TestImportFailsWhileLocked(t *testing.T) {
	root := t.TempDir()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	lock, err := projectlock.Acquire(cfg.LockPath(root))
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	imp := newImporter(t, cfg, root)
	if _, err := imp.Import(context.Background(), extract(t, xyz123())); !errors.Is(err, projectlock.ErrLocked) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestImportRequiresBundles(t *testing.T) {
	imp := newImporter(t, testsupport.NewConfig(t), t.TempDir())
	if _, err := imp.Import(context.Background(), nil); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
