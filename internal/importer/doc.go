// Package importer merges vendor part bundles into a project's parts catalog.
//
// An import plans every bundle against an in-memory overlay of the project:
// containers are ensured, legacy symbol libraries merged, footprints
// rewritten, and library-table entries added, all without touching the
// project. Only when every bundle has planned cleanly is the overlay written
// to a staging area and renamed into place, so a rejected part leaves the
// project exactly as it was.
package importer
