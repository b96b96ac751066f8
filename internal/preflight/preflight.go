package preflight

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"partcat/internal/config"
	"partcat/internal/faults"
	"partcat/internal/libtable"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks for modifying the project at projectRoot.
// The history ledger is only checked when it is enabled.
func RunAll(cfg *config.Config, projectRoot string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Project directory", projectRoot),
		CheckCreatable("Parts directory", filepath.Join(projectRoot, filepath.FromSlash(cfg.Catalog.PartsDir))),
		CheckCreatable("Footprint library table", libtable.ProjectPath(projectRoot, libtable.KindFootprint)),
		CheckCreatable("Symbol library table", libtable.ProjectPath(projectRoot, libtable.KindSymbol)),
		CheckCreatable("State directory", cfg.StateDir(projectRoot)),
	}
	if path := cfg.HistoryPath(projectRoot); path != "" {
		results = append(results, CheckCreatable("History ledger", path))
	}
	return results
}

// Err folds failed results into one configuration error, or returns nil when
// every check passed.
func Err(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return faults.Wrap(faults.ErrConfiguration, "", "preflight", strings.Join(failed, "; "), errors.New("project is not writable"))
}
