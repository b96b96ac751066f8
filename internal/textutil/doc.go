// Package textutil provides text helpers shared by the catalog packages.
//
// SanitizeFileName makes a vendor part number safe to use as an on-disk file
// or directory name. It is intentionally separate from the archive-folder
// sanitization in package archive and the category sanitization in package
// catalog; the three address different legality constraints.
package textutil
