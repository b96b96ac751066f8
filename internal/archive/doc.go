// Package archive pulls part bundles out of vendor download archives.
//
// An archive is any fs.FS: a zip file opened with Open, an unpacked vendor
// directory, or an in-memory tree in tests. Every part_info.txt found in the
// tree describes one part whose artifacts live in a sibling folder named after
// the part number.
package archive
