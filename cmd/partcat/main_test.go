package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"partcat/internal/kicad"
	"partcat/internal/libtable"
	"partcat/internal/testsupport"
)

type cliTestEnv struct {
	project    string
	configPath string
	archive    string
}

func setupCLITestEnv(t *testing.T, parts ...testsupport.VendorPart) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	project := filepath.Join(base, "board")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}
	configPath := testsupport.WriteFile(t, base, "config.toml", "[logging]\nlevel = \"error\"\n")

	env := &cliTestEnv{project: project, configPath: configPath}
	if len(parts) > 0 {
		env.archive = testsupport.WriteZip(t, base, parts...)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}

func vendorXYZ123() testsupport.VendorPart {
	return testsupport.VendorPart{
		PartNumber: "XYZ123",
		Category:   "IC",
		Has3DModel: true,
		Models:     map[string]string{"XYZ123.stp": "ISO-10303-21;"},
		ModelRefs:  []string{"XYZ123.stp"},
	}
}

func TestCLIAddFromZip(t *testing.T) {
	env := setupCLITestEnv(t, vendorXYZ123())

	out, _, err := runCLI(t, env, "add", env.project, env.archive)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Imported XYZ123 into Extern_IC (1 3D models)")
	requireContains(t, out, "LEGACY_Extern_IC")
	requireContains(t, out, "partcat post-migrate")

	for _, rel := range []string{
		"parts/Extern/footprints/IC.pretty/XYZ123.kicad_mod",
		"parts/Extern/symbols/IC.kicad_sym",
		"parts/Extern/symbols/LEGACY_IC.lib",
		"parts/Extern/3dmodels/IC.3dshapes/XYZ123/XYZ123.stp",
		libtable.FootprintFileName,
		libtable.SymbolFileName,
	} {
		if _, err := os.Stat(filepath.Join(env.project, filepath.FromSlash(rel))); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}

	out, _, err = runCLI(t, env, "--json", "list", env.project)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var entries []listedEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %+v", entries)
	}

	out, _, err = runCLI(t, env, "history", env.project)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "XYZ123")

	if _, _, err := runCLI(t, env, "add", env.project, env.archive); err == nil {
		t.Fatal("expected second import of the same part to fail")
	}
}

func TestCLIAddGroupOverride(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.VendorPart{PartNumber: "ABC9", Category: "Power Supply"})

	out, _, err := runCLI(t, env, "--group", "Vendor", "--json", "add", env.project, env.archive)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	var doc struct {
		Parts []struct {
			Library string `json:"library"`
		} `json:"parts"`
		LegacyLibraries []string `json:"legacy_libraries"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode add output: %v\n%s", err, out)
	}
	if len(doc.Parts) != 1 || doc.Parts[0].Library != "Vendor_Power_Supply" {
		t.Fatalf("parts = %+v", doc.Parts)
	}
	if len(doc.LegacyLibraries) != 1 || doc.LegacyLibraries[0] != "LEGACY_Vendor_Power_Supply" {
		t.Fatalf("legacy libraries = %v", doc.LegacyLibraries)
	}
}

func TestCLIPostMigrate(t *testing.T) {
	env := setupCLITestEnv(t, vendorXYZ123())
	if _, _, err := runCLI(t, env, "add", env.project, env.archive); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Stand in for KiCad's "Migrate Libraries" button.
	migrated := kicad.NewSymbolLib("20211014", "kicad_symbol_editor")
	migrated.Append(kicad.NewSymbol("XYZ123", "IC", "XYZ123", ""))
	migrated.Path = filepath.Join(env.project, "parts", "Extern", "symbols", "LEGACY_IC.kicad_sym")
	if err := migrated.Save(); err != nil {
		t.Fatalf("save migrated library: %v", err)
	}
	table, err := libtable.Load(libtable.ProjectPath(env.project, libtable.KindSymbol))
	if err != nil {
		t.Fatalf("load sym-lib-table: %v", err)
	}
	table.Remove("LEGACY_Extern_IC")
	table.Ensure("parts/Extern/symbols/LEGACY_IC.kicad_sym", "LEGACY_Extern_IC", false)
	if err := table.Save(); err != nil {
		t.Fatalf("save sym-lib-table: %v", err)
	}

	out, _, err := runCLI(t, env, "post-migrate", env.project)
	if err != nil {
		t.Fatalf("post-migrate: %v", err)
	}
	requireContains(t, out, "Merged LEGACY_Extern_IC into Extern_IC: XYZ123")

	lib, err := kicad.LoadSymbolLib(filepath.Join(env.project, "parts", "Extern", "symbols", "IC.kicad_sym"))
	if err != nil {
		t.Fatalf("load merged library: %v", err)
	}
	sym := lib.Find("XYZ123")
	if sym == nil {
		t.Fatalf("merged symbol missing, have %v", lib.Names())
	}
	if fp, _ := sym.Property(kicad.PropertyFootprint); fp != "Extern_IC:XYZ123" {
		t.Fatalf("footprint link = %q", fp)
	}
	for _, name := range []string{"LEGACY_IC.lib", "LEGACY_IC.kicad_sym"} {
		if _, err := os.Stat(filepath.Join(env.project, "parts", "Extern", "symbols", name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err = %v", name, err)
		}
	}

	if _, _, err := runCLI(t, env, "post-migrate", env.project); err == nil {
		t.Fatal("expected a second post-migrate to report nothing to migrate")
	}
}

func TestCLINewPart(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "new", env.project, "PART1", "Connectors")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	requireContains(t, out, "Created PART1 in Extern_Connectors")
	if _, err := os.Stat(filepath.Join(env.project, "parts", "Extern", "footprints", "Connectors.pretty", "PART1.kicad_mod")); err != nil {
		t.Fatalf("footprint missing: %v", err)
	}
}

func TestCLIRejectsMissingProject(t *testing.T) {
	env := setupCLITestEnv(t, vendorXYZ123())
	if _, _, err := runCLI(t, env, "add", filepath.Join(env.project, "missing"), env.archive); err == nil {
		t.Fatal("expected error for missing project")
	}
}

func TestCLIStagingClean(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, env.project, ".partcat/staging/old-run/parts/x.txt", "leftover")

	out, _, err := runCLI(t, env, "staging", "clean", "--all", env.project)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 staging areas")
	if _, err := os.Stat(filepath.Join(env.project, ".partcat", "staging", "old-run")); !os.IsNotExist(err) {
		t.Fatalf("expected staging area removed, stat err = %v", err)
	}
}

func TestCLICheck(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "check", env.project)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Project is ready")
}
