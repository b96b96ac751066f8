// Package legacysym reads and writes the legacy line-oriented KiCad schematic
// symbol library format (.lib).
//
// Only the definition boundaries and the symbol name are modelled. Everything
// between the name and the terminating ENDDEF is carried as an opaque
// remainder so that libraries round-trip without loss.
package legacysym
