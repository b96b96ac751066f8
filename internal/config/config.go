package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Catalog describes where parts live inside a KiCad project and which format
// versions freshly written files are stamped with.
type Catalog struct {
	Group            string `toml:"group"`
	PartsDir         string `toml:"parts_dir"`
	FootprintVersion string `toml:"footprint_version"`
	SymbolVersion    string `toml:"symbol_version"`
	SymbolGenerator  string `toml:"symbol_generator"`
}

// Import contains knobs for the import transaction.
type Import struct {
	// RejectDuplicateSymbols turns a duplicate legacy symbol name after merge
	// into a fatal error instead of a warning.
	RejectDuplicateSymbols bool `toml:"reject_duplicate_symbols"`
	// KeepStaging leaves the staging side-area on disk after a successful
	// commit for inspection.
	KeepStaging bool `toml:"keep_staging"`
}

// Staging contains configuration for the per-project state directory.
type Staging struct {
	DirName     string `toml:"dir_name"`
	MaxAgeHours int    `toml:"max_age_hours"`
}

// History contains configuration for the import history ledger.
type History struct {
	Enabled bool   `toml:"enabled"`
	File    string `toml:"file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for partcat.
//
// Configuration sections by subsystem:
//   - Catalog: group name, parts root, and codec version stamps
//   - Import: duplicate handling and staging retention
//   - Staging: project state directory and stale cleanup age
//   - History: SQLite import ledger
//   - Logging: log format, level, and optional file
type Config struct {
	Catalog Catalog `toml:"catalog"`
	Import  Import  `toml:"import"`
	Staging Staging `toml:"staging"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// Load resolves the configuration file, decodes it over the defaults and
// validates the result. It reports the path it settled on and whether a file
// was actually read there; a missing file means defaults.
//
// An explicit path is used as given. Otherwise the user config under
// ~/.config/partcat is tried first, then partcat.toml in the working
// directory.
func Load(path string) (*Config, string, bool, error) {
	candidates, err := configCandidates(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	resolved, found := candidates[0], false
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", false, fmt.Errorf("read config %s: %w", candidate, err)
		}
		if err := decodeStrict(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", candidate, err)
		}
		resolved, found = candidate, true
		break
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, found, nil
}

func decodeStrict(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func configCandidates(explicit string) ([]string, error) {
	if explicit != "" {
		p, err := ExpandPath(explicit)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	}
	user, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	local, err := ExpandPath("partcat.toml")
	if err != nil {
		return nil, err
	}
	return []string{user, local}, nil
}
