package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateStaging(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Group == "" {
		return errors.New("catalog.group must be set")
	}
	if strings.ContainsAny(c.Catalog.Group, `/\`) {
		return fmt.Errorf("catalog.group %q must not contain path separators", c.Catalog.Group)
	}
	if filepath.IsAbs(c.Catalog.PartsDir) || strings.HasPrefix(c.Catalog.PartsDir, "..") {
		return fmt.Errorf("catalog.parts_dir %q must be relative to the project root", c.Catalog.PartsDir)
	}
	for name, value := range map[string]string{
		"catalog.footprint_version": c.Catalog.FootprintVersion,
		"catalog.symbol_version":    c.Catalog.SymbolVersion,
	} {
		if !isDigits(value) {
			return fmt.Errorf("%s must be a KiCad date stamp like 20211014, got %q", name, value)
		}
	}
	return nil
}

func (c *Config) validateStaging() error {
	if strings.ContainsAny(c.Staging.DirName, `/\`) {
		return fmt.Errorf("staging.dir_name %q must be a single directory name", c.Staging.DirName)
	}
	if c.Staging.MaxAgeHours < 0 {
		return errors.New("staging.max_age_hours must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
