package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"partcat/internal/fileutil"
	"partcat/internal/logging"
)

// Area is one run's staging directory. Files are addressed by their
// slash-separated path relative to the project root.
type Area struct {
	ID          string
	Dir         string
	ProjectRoot string

	files  []string
	dirs   []string
	logger *slog.Logger
}

// CommitResult lists what a commit placed into the project.
type CommitResult struct {
	Files       []string
	Directories []string
}

// New creates the staging directory for runID below stagingRoot.
func New(stagingRoot, projectRoot, runID string, logger *slog.Logger) (*Area, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("staging: run id is empty")
	}
	dir := filepath.Join(stagingRoot, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging area: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Area{
		ID:          runID,
		Dir:         dir,
		ProjectRoot: projectRoot,
		logger:      logger,
	}, nil
}

// Stage writes data for the project-relative path rel into the side-area.
// Staging the same path twice keeps the last content.
func (a *Area) Stage(rel string, data []byte) error {
	clean, err := cleanRel(rel)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(a.Dir, filepath.FromSlash(clean)), data, 0o644); err != nil {
		return fmt.Errorf("stage %s: %w", clean, err)
	}
	for _, existing := range a.files {
		if existing == clean {
			return nil
		}
	}
	a.files = append(a.files, clean)
	return nil
}

// EnsureDir records a project-relative directory to create on commit even
// if no staged file lands inside it.
func (a *Area) EnsureDir(rel string) error {
	clean, err := cleanRel(rel)
	if err != nil {
		return err
	}
	for _, existing := range a.dirs {
		if existing == clean {
			return nil
		}
	}
	a.dirs = append(a.dirs, clean)
	return nil
}

// Staged lists staged file paths in staging order.
func (a *Area) Staged() []string {
	return append([]string(nil), a.files...)
}

// Commit renames every staged file into the project in staging order and
// creates the recorded directories. A failure part way leaves earlier files
// in place; the returned result lists them.
func (a *Area) Commit(ctx context.Context) (CommitResult, error) {
	var result CommitResult
	for _, rel := range a.dirs {
		target := filepath.Join(a.ProjectRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(target, 0o755); err != nil {
			return result, fmt.Errorf("commit directory %s: %w", rel, err)
		}
		result.Directories = append(result.Directories, rel)
	}
	for _, rel := range a.files {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("commit interrupted after %d files: %w", len(result.Files), err)
		}
		src := filepath.Join(a.Dir, filepath.FromSlash(rel))
		dst := filepath.Join(a.ProjectRoot, filepath.FromSlash(rel))
		if err := fileutil.MoveFile(src, dst); err != nil {
			a.logger.Error("staging commit failed part way",
				logging.String("file", rel),
				logging.Int("committed", len(result.Files)),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_commit_failed"),
				logging.String(logging.FieldErrorHint, "inspect the project and re-run after restoring the listed files"),
				logging.String(logging.FieldImpact, "project holds a partial import"),
			)
			return result, fmt.Errorf("commit %s: %w", rel, err)
		}
		result.Files = append(result.Files, rel)
	}
	a.logger.Debug("staging area committed",
		logging.Int("files", len(result.Files)),
		logging.Int("directories", len(result.Directories)),
		logging.String(logging.FieldEventType, "staging_commit"),
	)
	return result, nil
}

// Discard removes the staging directory.
func (a *Area) Discard() error {
	if err := os.RemoveAll(a.Dir); err != nil {
		return fmt.Errorf("discard staging area: %w", err)
	}
	return nil
}

func cleanRel(rel string) (string, error) {
	clean := path.Clean(filepath.ToSlash(strings.TrimSpace(rel)))
	if clean == "." || clean == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("staging: %q is not a project-relative path", rel)
	}
	return clean, nil
}
