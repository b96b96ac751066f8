// Package sexpr parses and prints the s-expression dialect used by KiCad
// footprint, symbol, and library-table files.
//
// Atoms remember whether they were quoted so that a parse/print cycle keeps
// bare keywords bare and strings quoted. Nodes the caller never touches are
// printed back unchanged in meaning, though whitespace is normalized.
package sexpr
