package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeCatalog()
	c.normalizeStaging()
	c.normalizeHistory()
	return c.normalizeLogging()
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Group = strings.TrimSpace(c.Catalog.Group)
	if value, ok := os.LookupEnv("PARTCAT_GROUP"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.Group = strings.TrimSpace(value)
	}
	if c.Catalog.Group == "" {
		c.Catalog.Group = defaultGroup
	}
	c.Catalog.PartsDir = strings.TrimRight(filepath.ToSlash(strings.TrimSpace(c.Catalog.PartsDir)), "/")
	if c.Catalog.PartsDir == "" {
		c.Catalog.PartsDir = defaultPartsDir
	}
	c.Catalog.FootprintVersion = strings.TrimSpace(c.Catalog.FootprintVersion)
	if c.Catalog.FootprintVersion == "" {
		c.Catalog.FootprintVersion = defaultFootprintVersion
	}
	c.Catalog.SymbolVersion = strings.TrimSpace(c.Catalog.SymbolVersion)
	if c.Catalog.SymbolVersion == "" {
		c.Catalog.SymbolVersion = defaultSymbolVersion
	}
	c.Catalog.SymbolGenerator = strings.TrimSpace(c.Catalog.SymbolGenerator)
	if c.Catalog.SymbolGenerator == "" {
		c.Catalog.SymbolGenerator = defaultSymbolGenerator
	}
}

func (c *Config) normalizeStaging() {
	c.Staging.DirName = strings.TrimSpace(c.Staging.DirName)
	if c.Staging.DirName == "" {
		c.Staging.DirName = defaultStateDirName
	}
	if c.Staging.MaxAgeHours == 0 {
		c.Staging.MaxAgeHours = defaultStagingMaxAgeHours
	}
}

func (c *Config) normalizeHistory() {
	c.History.File = strings.TrimSpace(c.History.File)
	if c.History.File == "" {
		c.History.File = defaultHistoryFile
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv("PARTCAT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.File != "" {
		expanded, err := ExpandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
