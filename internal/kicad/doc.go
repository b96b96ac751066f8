// Package kicad reads, edits, and writes the KiCad footprint (.kicad_mod) and
// symbol library (.kicad_sym) files that make up a part.
//
// Only the fields the catalog needs are exposed. Every other node is kept in
// the underlying s-expression tree and written back untouched.
package kicad
