// Package config loads, normalizes, and validates partcat configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PARTCAT_GROUP. The Config type centralizes every knob the import and
// migration commands need: the catalog group and layout, codec version stamps,
// staging behaviour, the history ledger, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized values and clear validation errors.
package config
