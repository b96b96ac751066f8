package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed sample_config.toml
var sampleConfig []byte

// DefaultConfigPath is where config init writes when no path is given.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/partcat/config.toml")
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path. An
// empty value stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimLeft(p[1:], `/\`))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// WriteSample writes the annotated sample configuration to path, creating
// parent directories. An existing file is only replaced when overwrite is set;
// otherwise the error wraps fs.ErrExist.
func WriteSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	if _, err := f.Write(sampleConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return f.Close()
}

// StateDir holds the lock, staging areas and history ledger of a project.
func (c *Config) StateDir(projectRoot string) string {
	return filepath.Join(projectRoot, c.Staging.DirName)
}

func (c *Config) StagingRoot(projectRoot string) string {
	return filepath.Join(c.StateDir(projectRoot), "staging")
}

func (c *Config) LockPath(projectRoot string) string {
	return filepath.Join(c.StateDir(projectRoot), "lock")
}

// HistoryPath returns the ledger database path, or "" when history is
// disabled. A relative history.file is taken relative to the state directory.
func (c *Config) HistoryPath(projectRoot string) string {
	switch {
	case !c.History.Enabled:
		return ""
	case filepath.IsAbs(c.History.File):
		return c.History.File
	default:
		return filepath.Join(c.StateDir(projectRoot), c.History.File)
	}
}

// StagingMaxAge is the age after which a leftover staging area is stale.
// Zero disables stale cleanup.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Staging.MaxAgeHours) * time.Hour
}
