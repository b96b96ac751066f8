// Package staging manages the per-run side-area where an import writes every
// file before a final pass renames them into the project, plus cleanup of
// side-areas abandoned by interrupted runs.
package staging
