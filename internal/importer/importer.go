package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"partcat/internal/archive"
	"partcat/internal/catalog"
	"partcat/internal/config"
	"partcat/internal/faults"
	"partcat/internal/history"
	"partcat/internal/kicad"
	"partcat/internal/legacysym"
	"partcat/internal/libtable"
	"partcat/internal/logging"
	"partcat/internal/projectlock"
	"partcat/internal/staging"
	"partcat/internal/textutil"
)

// Importer merges parts into one project.
type Importer struct {
	cfg      *config.Config
	root     string
	layout   catalog.Layout
	logger   *slog.Logger
	newRunID func() string
}

// Option customises the Importer.
type Option func(*Importer)

// WithRunIDFunc overrides run identifier generation (primarily for tests).
func WithRunIDFunc(fn func() string) Option {
	return func(imp *Importer) {
		if fn != nil {
			imp.newRunID = fn
		}
	}
}

// New constructs an importer for the project at projectRoot.
func New(cfg *config.Config, projectRoot string, logger *slog.Logger, opts ...Option) *Importer {
	imp := &Importer{
		cfg:      cfg,
		root:     projectRoot,
		layout:   catalog.NewLayout(cfg.Catalog.PartsDir, cfg.Catalog.Group),
		logger:   logging.NewComponentLogger(logger, "importer"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// PartResult describes one imported part.
type PartResult struct {
	PartNumber string
	Category   string
	Library    string
	Footprint  string
	Models     []string
	Source     string
}

// Result summarises a committed run.
type Result struct {
	RunID    string
	Parts    []PartResult
	Files    []string
	Warnings []string
	// LegacyLibraries lists legacy-shadow symbol entries first added by this
	// run. Each needs a manual migration in the symbol editor.
	LegacyLibraries []libtable.Entry
}

// Import plans every bundle, then commits the whole run at once. Nothing in
// the project changes unless every bundle plans cleanly.
func (imp *Importer) Import(ctx context.Context, bundles []archive.Bundle) (Result, error) {
	if len(bundles) == 0 {
		return Result{}, faults.Wrap(faults.ErrNotFound, "", "import", "no parts to import", nil)
	}
	return imp.run(ctx, history.ActionImport, func(ctx context.Context, ov *overlay, result *Result) error {
		for _, bundle := range bundles {
			if err := ctx.Err(); err != nil {
				return err
			}
			part, err := imp.plan(ctx, ov, bundle, result)
			if err != nil {
				return err
			}
			result.Parts = append(result.Parts, part)
		}
		return nil
	}, func(result Result) []*history.Event {
		events := make([]*history.Event, 0, len(result.Parts))
		for i, part := range result.Parts {
			b := bundles[i].Part
			events = append(events, &history.Event{
				RunID:        result.RunID,
				Action:       history.ActionImport,
				PartNumber:   part.PartNumber,
				Manufacturer: b.Manufacturer,
				Category:     part.Category,
				Library:      part.Library,
				Version:      b.Version.String(),
				Source:       part.Source,
				Files:        1 + len(part.Models),
			})
		}
		return events
	})
}

type planFunc func(ctx context.Context, ov *overlay, result *Result) error

type eventsFunc func(result Result) []*history.Event

// run holds the project lock around planning, staging, and commit.
func (imp *Importer) run(ctx context.Context, action history.Action, plan planFunc, events eventsFunc) (Result, error) {
	lock, err := projectlock.Acquire(imp.cfg.LockPath(imp.root))
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = lock.Release() }()

	runID := imp.newRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, imp.logger)

	stagingRoot := imp.cfg.StagingRoot(imp.root)
	if maxAge := imp.cfg.StagingMaxAge(); maxAge > 0 {
		staging.CleanStale(ctx, stagingRoot, maxAge, logger)
	}

	result := Result{RunID: runID}
	ov := newOverlay(imp.root)
	if err := plan(ctx, ov, &result); err != nil {
		logger.Debug("import plan rejected", logging.String(logging.FieldEventType, "import_plan_rejected"), logging.Error(err))
		return Result{RunID: runID}, err
	}

	area, err := staging.New(stagingRoot, imp.root, runID, logger)
	if err != nil {
		return Result{RunID: runID}, err
	}
	if err := ov.stage(area); err != nil {
		_ = area.Discard()
		return Result{RunID: runID}, err
	}
	committed, err := area.Commit(ctx)
	result.Files = committed.Files
	if err != nil {
		return result, fmt.Errorf("commit run %s: %w", runID, err)
	}
	if !imp.cfg.Import.KeepStaging {
		if err := area.Discard(); err != nil {
			logging.WarnWithContext(logger, "staging area not removed", "staging_discard_failed",
				logging.String("dir", area.Dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove it with partcat staging clean"),
				logging.String(logging.FieldImpact, "leftover files in the project state directory"),
			)
		}
	}

	logger.Info("catalog updated",
		logging.String("action", string(action)),
		logging.Int("parts", len(result.Parts)),
		logging.Int("files", len(result.Files)),
		logging.String(logging.FieldEventType, "catalog_committed"),
	)

	if err := history.Record(ctx, imp.cfg.HistoryPath(imp.root), events(result)...); err != nil {
		logging.WarnWithContext(logger, "history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database in the project state directory"),
			logging.String(logging.FieldImpact, "this run is missing from partcat history"),
		)
	}
	return result, nil
}

// containers resolves the four containers for category.
type containers struct {
	footprints catalog.Location
	symbols    catalog.Location
	legacy     catalog.Location
	models     catalog.Location
}

func (imp *Importer) resolve(category, fileName string) (containers, error) {
	var c containers
	var err error
	if c.footprints, err = imp.layout.Resolve(category, fileName, catalog.KindFootprints); err != nil {
		return c, err
	}
	if c.symbols, err = imp.layout.Resolve(category, fileName, catalog.KindSymbols); err != nil {
		return c, err
	}
	if c.legacy, err = imp.layout.Resolve(category, fileName, catalog.KindLegacySymbols); err != nil {
		return c, err
	}
	if c.models, err = imp.layout.Resolve(category, fileName, catalog.KindModels); err != nil {
		return c, err
	}
	return c, nil
}

func (imp *Importer) freshSymbolLib() *kicad.SymbolLib {
	return kicad.NewSymbolLib(imp.cfg.Catalog.SymbolVersion, imp.cfg.Catalog.SymbolGenerator)
}

// ensureContainers plans the directory containers and seeds missing symbol
// libraries.
func (imp *Importer) ensureContainers(ov *overlay, c containers) (*kicad.SymbolLib, *legacysym.Library, error) {
	ov.ensureDir(c.footprints.Path)
	ov.ensureDir(c.models.Path)
	symbols, err := ov.symbolLibrary(c.symbols.Path, imp.freshSymbolLib)
	if err != nil {
		return nil, nil, err
	}
	legacy, err := ov.legacyLibrary(c.legacy.Path)
	if err != nil {
		return nil, nil, err
	}
	return symbols, legacy, nil
}

func (imp *Importer) plan(ctx context.Context, ov *overlay, bundle archive.Bundle, result *Result) (PartResult, error) {
	part := bundle.Part
	scope := part.PartNumber
	logger := logging.WithContext(logging.WithPart(ctx, part.PartNumber), imp.logger)

	category := catalog.SanitizeCategory(part.PartCategory)
	if category == "" {
		return PartResult{}, faults.Wrap(faults.ErrSchema, scope, "normalize category",
			fmt.Sprintf("category %q is empty after sanitizing", part.PartCategory), nil)
	}
	fileName := textutil.SanitizeFileName(part.PartNumber)
	logger = logger.With(logging.Category(category))

	c, err := imp.resolve(category, fileName)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrConfiguration, scope, "resolve containers", "", err)
	}
	_, existing, err := imp.ensureContainers(ov, c)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "load libraries", "", err)
	}

	incoming, err := legacysym.Parse(bundle.LegacySymbol)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "parse legacy symbol", "", err)
	}
	if incoming.Len() != 1 {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "parse legacy symbol",
			fmt.Sprintf("expected exactly one symbol definition, found %d", incoming.Len()), nil)
	}
	incoming.Rename(incoming.Names()[0], part.PartNumber)
	merged := legacysym.Merge(existing, incoming)
	if dups := merged.Duplicates(); len(dups) > 0 {
		msg := fmt.Sprintf("duplicate legacy symbol names in %s: %s", c.legacy.Path, strings.Join(dups, ", "))
		if imp.cfg.Import.RejectDuplicateSymbols {
			return PartResult{}, faults.Wrap(faults.ErrDuplicate, scope, "merge legacy symbols", msg, nil)
		}
		result.Warnings = append(result.Warnings, msg)
		logging.WarnWithContext(logger, "duplicate legacy symbol names", "legacy_symbol_duplicate",
			logging.String("library", c.legacy.Path),
			logging.String("names", strings.Join(dups, ",")),
			logging.String(logging.FieldErrorHint, "rename or remove the duplicate symbol in the symbol editor"),
			logging.String(logging.FieldImpact, "the symbol editor shows only one of the duplicates"),
		)
	}

	footprintFile := path.Join(c.footprints.Path, fileName+catalog.FootprintExt)
	exists, err := ov.exists(footprintFile)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "check footprint", "", err)
	}
	if exists {
		return PartResult{}, faults.Wrap(faults.ErrDuplicate, scope, "check footprint",
			fmt.Sprintf("footprint %s already exists", footprintFile), nil)
	}

	fp, err := kicad.ParseFootprint(bundle.Footprint)
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "parse footprint", "", err)
	}
	fp.SetVersion(imp.cfg.Catalog.FootprintVersion)
	fp.SetName(part.PartNumber)

	var models []string
	if part.Has3DModel {
		for i, name := range fp.ModelFileNames() {
			if !bundle.HasModel(name) {
				return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "link 3D models",
					fmt.Sprintf("footprint references %q which is not in the archive", name), nil)
			}
			if err := fp.SetModelPath(i, libtable.ProjectVar+"/"+path.Join(c.models.Path, name)); err != nil {
				return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "link 3D models", "", err)
			}
		}
	}

	fpTable, symTable, err := ov.tables()
	if err != nil {
		return PartResult{}, faults.Wrap(faults.ErrStructure, scope, "load library tables", "", err)
	}
	nick := imp.layout.Nickname(category)
	if _, added := fpTable.Ensure(c.footprints.Path, nick, false); added {
		logger.Debug("footprint library registered", logging.String("library", nick), logging.String(logging.FieldEventType, "index_entry_added"))
	}
	if _, added := symTable.Ensure(c.symbols.Path, nick, false); added {
		logger.Debug("symbol library registered", logging.String("library", nick), logging.String(logging.FieldEventType, "index_entry_added"))
	}
	if entry, added := symTable.Ensure(c.legacy.Path, imp.layout.LegacyNickname(category), true); added {
		result.LegacyLibraries = append(result.LegacyLibraries, entry)
		logger.Debug("legacy symbol library registered", logging.String("library", entry.Name), logging.String(logging.FieldEventType, "index_entry_added"))
	}

	ov.setLegacyLibrary(c.legacy.Path, merged)
	ov.putFile(footprintFile, fp.Bytes())
	if part.Has3DModel {
		for _, model := range bundle.Models {
			rel := path.Join(c.models.Path, model.Name)
			ov.putFile(rel, model.Data)
			models = append(models, rel)
		}
	}

	logger.Info("part planned",
		logging.String("footprint", footprintFile),
		logging.Int("models", len(models)),
		logging.String(logging.FieldEventType, "part_planned"),
	)
	return PartResult{
		PartNumber: part.PartNumber,
		Category:   category,
		Library:    nick,
		Footprint:  footprintFile,
		Models:     models,
		Source:     bundle.Source,
	}, nil
}
