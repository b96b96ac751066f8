package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"partcat/internal/fileutil"
	"partcat/internal/kicad"
	"partcat/internal/legacysym"
	"partcat/internal/libtable"
	"partcat/internal/staging"
)

// overlay holds every planned change to a project. Reads consult the overlay
// first and fall back to the project on disk.
type overlay struct {
	root string

	order  []string
	blobs  map[string][]byte
	legacy map[string]*legacysym.Library
	syms   map[string]*kicad.SymbolLib
	dirs   []string

	fpTable  *libtable.Table
	symTable *libtable.Table
}

func newOverlay(root string) *overlay {
	return &overlay{
		root:   root,
		blobs:  make(map[string][]byte),
		legacy: make(map[string]*legacysym.Library),
		syms:   make(map[string]*kicad.SymbolLib),
	}
}

func (o *overlay) abs(rel string) string {
	return filepath.Join(o.root, filepath.FromSlash(rel))
}

func (o *overlay) planned(rel string) bool {
	if _, ok := o.blobs[rel]; ok {
		return true
	}
	if _, ok := o.legacy[rel]; ok {
		return true
	}
	_, ok := o.syms[rel]
	return ok
}

// exists reports whether rel is planned in this run or already on disk.
func (o *overlay) exists(rel string) (bool, error) {
	if o.planned(rel) {
		return true, nil
	}
	return fileutil.Exists(o.abs(rel))
}

func (o *overlay) track(rel string) {
	if !o.planned(rel) {
		o.order = append(o.order, rel)
	}
}

func (o *overlay) putFile(rel string, data []byte) {
	o.track(rel)
	o.blobs[rel] = data
}

func (o *overlay) ensureDir(rel string) {
	for _, d := range o.dirs {
		if d == rel {
			return
		}
	}
	o.dirs = append(o.dirs, rel)
}

// legacyLibrary returns the planned legacy library at rel, loading it from
// disk on first use or starting an empty one.
func (o *overlay) legacyLibrary(rel string) (*legacysym.Library, error) {
	if lib, ok := o.legacy[rel]; ok {
		return lib, nil
	}
	lib, err := legacysym.ReadFile(o.abs(rel))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		lib = legacysym.New()
	case err != nil:
		return nil, err
	}
	o.track(rel)
	o.legacy[rel] = lib
	return lib, nil
}

func (o *overlay) setLegacyLibrary(rel string, lib *legacysym.Library) {
	o.track(rel)
	o.legacy[rel] = lib
}

// symbolLibrary returns the modern symbol library at rel. A library missing
// on disk is created by fresh and planned for writing; an existing one is only
// written once markSymbols is called for it.
func (o *overlay) symbolLibrary(rel string, fresh func() *kicad.SymbolLib) (*kicad.SymbolLib, error) {
	if lib, ok := o.syms[rel]; ok {
		return lib, nil
	}
	lib, err := kicad.LoadSymbolLib(o.abs(rel))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		lib = fresh()
		lib.Path = o.abs(rel)
		o.order = append(o.order, rel)
	case err != nil:
		return nil, err
	}
	o.syms[rel] = lib
	return lib, nil
}

func (o *overlay) markSymbols(rel string) {
	for _, existing := range o.order {
		if existing == rel {
			return
		}
	}
	o.order = append(o.order, rel)
}

func (o *overlay) tables() (*libtable.Table, *libtable.Table, error) {
	if o.fpTable == nil {
		t, err := libtable.LoadOrCreate(libtable.KindFootprint, libtable.ProjectPath(o.root, libtable.KindFootprint))
		if err != nil {
			return nil, nil, err
		}
		o.fpTable = t
	}
	if o.symTable == nil {
		t, err := libtable.LoadOrCreate(libtable.KindSymbol, libtable.ProjectPath(o.root, libtable.KindSymbol))
		if err != nil {
			return nil, nil, err
		}
		o.symTable = t
	}
	return o.fpTable, o.symTable, nil
}

// stage writes every planned file and directory into area, tables last.
func (o *overlay) stage(area *staging.Area) error {
	for _, dir := range o.dirs {
		if err := area.EnsureDir(dir); err != nil {
			return err
		}
	}
	for _, rel := range o.order {
		var data []byte
		switch {
		case o.legacy[rel] != nil:
			data = o.legacy[rel].Bytes()
		case o.syms[rel] != nil:
			data = o.syms[rel].Bytes()
		default:
			data = o.blobs[rel]
		}
		if err := area.Stage(rel, data); err != nil {
			return err
		}
	}
	for _, t := range []*libtable.Table{o.fpTable, o.symTable} {
		if t == nil {
			continue
		}
		if err := area.Stage(libtable.FileName(t.Kind), t.Bytes()); err != nil {
			return fmt.Errorf("stage %s: %w", libtable.FileName(t.Kind), err)
		}
	}
	return nil
}
