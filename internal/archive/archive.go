package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"partcat/internal/faults"
	"partcat/internal/partinfo"
)

const (
	modelsDir = "3D"
	kicadDir  = "KiCad"

	legacySymbolExt = ".lib"
	footprintExt    = ".kicad_mod"
)

// ModelFile is one 3D model payload.
type ModelFile struct {
	Name string
	Data []byte
}

// Bundle is everything extracted for one part.
type Bundle struct {
	Part         partinfo.Part
	Source       string
	Footprint    string
	LegacySymbol string
	Models       []ModelFile
}

// HasModel reports whether the bundle carries a model called name.
func (b Bundle) HasModel(name string) bool {
	for _, m := range b.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Source is an opened archive.
type Source struct {
	Path   string
	FS     fs.FS
	closer io.Closer
}

// Open opens path as a zip archive, or as a directory tree when path is a
// directory.
func Open(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if info.IsDir() {
		return &Source{Path: path, FS: os.DirFS(path)}, nil
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStructure, path, "open archive", "not a zip archive or directory", err)
	}
	return &Source{Path: path, FS: zr, closer: zr}, nil
}

// Close releases the underlying zip file, if any.
func (s *Source) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// SanitizeArchiveName maps a part number to the folder name the vendor tool
// uses inside its archives.
func SanitizeArchiveName(partNumber string) string {
	return strings.NewReplacer("(", "_", "/", "_").Replace(partNumber)
}

// Extract returns one bundle per metadata file in fsys, in path order.
func Extract(fsys fs.FS) ([]Bundle, error) {
	files, err := listFiles(fsys)
	if err != nil {
		return nil, err
	}

	var bundles []Bundle
	for _, name := range files {
		if path.Base(name) != partinfo.FileName {
			continue
		}
		bundle, err := extractPart(fsys, files, name)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}
	if len(bundles) == 0 {
		return nil, faults.Wrap(faults.ErrStructure, "", "extract", "archive contains no "+partinfo.FileName, nil)
	}
	return bundles, nil
}

func extractPart(fsys fs.FS, files []string, metaPath string) (Bundle, error) {
	raw, err := fs.ReadFile(fsys, metaPath)
	if err != nil {
		return Bundle{}, fmt.Errorf("read %s: %w", metaPath, err)
	}
	part, err := partinfo.Parse(string(raw))
	if err != nil {
		return Bundle{}, fmt.Errorf("%s: %w", metaPath, err)
	}

	folder := path.Join(path.Dir(path.Dir(metaPath)), SanitizeArchiveName(part.PartNumber))
	scope := "part " + part.PartNumber
	bundle := Bundle{Part: part, Source: metaPath}

	var footprints, legacy []string
	seen := make(map[string]struct{})
	for _, name := range files {
		switch {
		case isBelow(name, path.Join(folder, modelsDir)):
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return Bundle{}, fmt.Errorf("read %s: %w", name, err)
			}
			model := ModelFile{Name: path.Base(name), Data: data}
			key := model.Name + "\x00" + string(data)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bundle.Models = append(bundle.Models, model)
		case isBelow(name, path.Join(folder, kicadDir)):
			switch path.Ext(name) {
			case legacySymbolExt:
				legacy = append(legacy, name)
			case footprintExt:
				footprints = append(footprints, name)
			}
		}
	}

	if bundle.LegacySymbol, err = readSingle(fsys, legacy, scope, "legacy symbol ("+legacySymbolExt+")", folder); err != nil {
		return Bundle{}, err
	}
	if bundle.Footprint, err = readSingle(fsys, footprints, scope, "footprint ("+footprintExt+")", folder); err != nil {
		return Bundle{}, err
	}

	sort.SliceStable(bundle.Models, func(i, j int) bool {
		if bundle.Models[i].Name != bundle.Models[j].Name {
			return bundle.Models[i].Name < bundle.Models[j].Name
		}
		return bytes.Compare(bundle.Models[i].Data, bundle.Models[j].Data) < 0
	})
	return bundle, nil
}

func readSingle(fsys fs.FS, candidates []string, scope, artifact, folder string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", faults.Wrap(faults.ErrStructure, scope, "extract", fmt.Sprintf("no %s file under %s/%s", artifact, folder, kicadDir), nil)
	case 1:
		data, err := fs.ReadFile(fsys, candidates[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", candidates[0], err)
		}
		return string(data), nil
	default:
		return "", faults.Wrap(faults.ErrStructure, scope, "extract", fmt.Sprintf("ambiguous %s: %s", artifact, strings.Join(candidates, ", ")), nil)
	}
}

func listFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func isBelow(name, dir string) bool {
	if dir == "." {
		return true
	}
	return strings.HasPrefix(name, dir+"/")
}
