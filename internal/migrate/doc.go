// Package migrate folds symbol libraries that were converted in the KiCad
// symbol editor back into their category library.
//
// Imports register every category twice in sym-lib-table: the plain library
// and a LEGACY_ shadow in the old .lib format. Once the user converts the
// shadow to .kicad_sym, Merge moves its symbols into the plain library, links
// each symbol to its footprint, and removes the shadow entry and files.
package migrate
