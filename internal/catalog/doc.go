// Package catalog maps (group, category, part) onto the on-disk layout of the
// project-local parts catalog and derives the library nicknames used in the
// KiCad library tables.
package catalog
