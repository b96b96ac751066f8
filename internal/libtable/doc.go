// Package libtable loads, edits, and saves the project-level KiCad library
// tables (fp-lib-table and sym-lib-table).
package libtable
