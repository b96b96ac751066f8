package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"partcat/internal/catalog"
	"partcat/internal/config"
	"partcat/internal/faults"
	"partcat/internal/fileutil"
	"partcat/internal/history"
	"partcat/internal/kicad"
	"partcat/internal/libtable"
	"partcat/internal/logging"
	"partcat/internal/projectlock"
	"partcat/internal/staging"
	"partcat/internal/textutil"
)

// Merger performs post-migration merges for one project.
type Merger struct {
	cfg      *config.Config
	root     string
	logger   *slog.Logger
	newRunID func() string
	commit   func(context.Context, *staging.Area) (staging.CommitResult, error)
}

// Option customises the Merger.
type Option func(*Merger)

// WithRunIDFunc overrides run identifier generation (primarily for tests).
func WithRunIDFunc(fn func() string) Option {
	return func(m *Merger) {
		if fn != nil {
			m.newRunID = fn
		}
	}
}

// New constructs a merger for the project at projectRoot.
func New(cfg *config.Config, projectRoot string, logger *slog.Logger, opts ...Option) *Merger {
	m := &Merger{
		cfg:      cfg,
		root:     projectRoot,
		logger:   logging.NewComponentLogger(logger, "migrate"),
		newRunID: uuid.NewString,
		commit: func(ctx context.Context, a *staging.Area) (staging.CommitResult, error) {
			return a.Commit(ctx)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merged describes one folded library.
type Merged struct {
	Migrated string
	Library  string
	Symbols  []string
}

// Result summarises a merge run.
type Result struct {
	RunID   string
	Merged  []Merged
	Removed []string
}

type pending struct {
	entry   libtable.Entry
	sibling libtable.Entry
	source  *kicad.SymbolLib
	target  *kicad.SymbolLib
	rel     string
	names   []string
	files   []string
}

// Merge folds every migrated legacy library into its sibling. Every
// candidate is validated before the first file changes.
func (m *Merger) Merge(ctx context.Context) (Result, error) {
	lock, err := projectlock.Acquire(m.cfg.LockPath(m.root))
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = lock.Release() }()

	result := Result{RunID: m.newRunID()}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, m.logger)

	tablePath := libtable.ProjectPath(m.root, libtable.KindSymbol)
	table, err := libtable.Load(tablePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, faults.Wrap(faults.ErrMigration, tablePath, "load symbol table", "project has no "+libtable.SymbolFileName, nil)
		}
		return result, faults.Wrap(faults.ErrMigration, tablePath, "load symbol table", "", err)
	}

	candidates := migrated(table)
	if len(candidates) == 0 {
		return result, faults.Wrap(faults.ErrMigration, tablePath, "select libraries", "nothing to migrate", nil)
	}

	// Siblings pointing at the same file share one in-memory library.
	targets := make(map[string]*kicad.SymbolLib)
	plans := make([]pending, 0, len(candidates))
	for _, entry := range candidates {
		p, err := m.prepare(table, entry, targets)
		if err != nil {
			return result, err
		}
		plans = append(plans, p)
	}

	for _, p := range plans {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for _, sym := range p.source.Symbols() {
			sym.SetProperty(kicad.PropertyFootprint, p.sibling.Name+":"+textutil.SanitizeFileName(sym.Name()))
			p.target.Append(sym)
			logger.Debug("symbol relinked", logging.Part(sym.Name()), logging.String("library", p.sibling.Name))
		}
	}

	saved, commitErr := m.writeSiblings(ctx, logger, result.RunID, plans)

	// A sibling that already holds its migrated symbols must lose its LEGACY
	// row even when a later sibling failed, or a re-run appends them twice.
	var drop []string
	for _, p := range plans {
		if _, ok := saved[p.rel]; !ok {
			continue
		}
		drop = append(drop, p.entry.Name)
		result.Merged = append(result.Merged, Merged{Migrated: p.entry.Name, Library: p.sibling.Name, Symbols: p.names})
		logger.Info("migrated library merged",
			logging.String("migrated", p.entry.Name),
			logging.String("library", p.sibling.Name),
			logging.Int("symbols", len(p.names)),
			logging.String(logging.FieldEventType, "library_merged"),
		)
	}

	if len(drop) > 0 {
		table.Remove(drop...)
		if err := table.Save(); err != nil {
			return result, faults.Wrap(faults.ErrMigration, tablePath, "save symbol table",
				"merged libraries still listed: "+strings.Join(drop, ", "), err)
		}
	}
	for _, p := range plans {
		if _, ok := saved[p.rel]; !ok {
			continue
		}
		for _, file := range p.files {
			if err := fileutil.RemoveIfExists(file); err != nil {
				logging.WarnWithContext(logger, "migrated file not removed", "migrate_cleanup_failed",
					logging.String("file", file),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "delete the file by hand"),
					logging.String(logging.FieldImpact, "an orphaned library file stays in the project"),
				)
				continue
			}
			result.Removed = append(result.Removed, file)
		}
	}

	m.record(ctx, logger, result)
	if commitErr != nil {
		return result, faults.Wrap(faults.ErrMigration, tablePath, "save symbol libraries",
			fmt.Sprintf("%d of %d libraries merged before the failure", len(result.Merged), len(plans)), commitErr)
	}
	return result, nil
}

// migrated selects legacy-shadow entries the user has converted to the
// modern symbol format.
func migrated(table *libtable.Table) []libtable.Entry {
	var out []libtable.Entry
	for _, entry := range table.Entries() {
		if !catalog.IsLegacyNickname(entry.Name) || entry.Type != libtable.TypeKiCad {
			continue
		}
		if !strings.HasSuffix(entry.URI, catalog.SymbolLibExt) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (m *Merger) prepare(table *libtable.Table, entry libtable.Entry, targets map[string]*kicad.SymbolLib) (pending, error) {
	siblingName := catalog.StripLegacyPrefix(entry.Name)
	sibling, ok := table.Find(siblingName)
	if !ok {
		return pending{}, faults.Wrap(faults.ErrMigration, entry.Name, "find sibling",
			fmt.Sprintf("no library named %s in %s", siblingName, libtable.SymbolFileName), nil)
	}

	sourcePath := libtable.ResolveURI(m.root, entry.URI)
	source, err := kicad.LoadSymbolLib(sourcePath)
	if err != nil {
		return pending{}, faults.Wrap(faults.ErrMigration, entry.Name, "load migrated library", "", err)
	}
	targetPath := libtable.ResolveURI(m.root, sibling.URI)
	rel, err := filepath.Rel(m.root, targetPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return pending{}, faults.Wrap(faults.ErrMigration, sibling.Name, "locate library",
			fmt.Sprintf("%s is outside the project", targetPath), err)
	}
	target, ok := targets[targetPath]
	if !ok {
		if target, err = kicad.LoadSymbolLib(targetPath); err != nil {
			return pending{}, faults.Wrap(faults.ErrMigration, sibling.Name, "load library", "", err)
		}
		targets[targetPath] = target
	}

	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	return pending{
		entry:   entry,
		sibling: sibling,
		source:  source,
		target:  target,
		rel:     filepath.ToSlash(rel),
		names:   source.Names(),
		files:   []string{base + catalog.LegacyLibExt, sourcePath},
	}, nil
}

// writeSiblings stages every merged sibling and commits them by rename. It
// returns the project-relative paths that reached the project, which on a
// failed commit is a prefix of the staged set.
func (m *Merger) writeSiblings(ctx context.Context, logger *slog.Logger, runID string, plans []pending) (map[string]struct{}, error) {
	saved := make(map[string]struct{})
	area, err := staging.New(m.cfg.StagingRoot(m.root), m.root, runID, logger)
	if err != nil {
		return saved, err
	}
	defer func() {
		if m.cfg.Import.KeepStaging {
			return
		}
		if err := area.Discard(); err != nil {
			logging.WarnWithContext(logger, "staging area not removed", "staging_discard_failed",
				logging.String("dir", area.Dir),
				logging.Error(err),
			)
		}
	}()

	for _, p := range plans {
		if err := area.Stage(p.rel, p.target.Bytes()); err != nil {
			return saved, err
		}
	}
	committed, err := m.commit(ctx, area)
	for _, rel := range committed.Files {
		saved[rel] = struct{}{}
	}
	if err != nil {
		logging.WarnWithContext(logger, "symbol libraries partly merged", "migrate_commit_partial",
			logging.String("saved", strings.Join(committed.Files, ", ")),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the reported file and re-run post-migrate for the remaining libraries"),
			logging.String(logging.FieldImpact, "only the listed libraries hold their migrated symbols"),
		)
	}
	return saved, err
}

func (m *Merger) record(ctx context.Context, logger *slog.Logger, result Result) {
	var events []*history.Event
	for _, merged := range result.Merged {
		for _, name := range merged.Symbols {
			events = append(events, &history.Event{
				RunID:      result.RunID,
				Action:     history.ActionMigrate,
				PartNumber: name,
				Library:    merged.Library,
				Source:     merged.Migrated,
			})
		}
	}
	if err := history.Record(ctx, m.cfg.HistoryPath(m.root), events...); err != nil {
		logging.WarnWithContext(logger, "history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database in the project state directory"),
			logging.String(logging.FieldImpact, "this migration is missing from partcat history"),
		)
	}
}
