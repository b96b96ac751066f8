// Package partinfo parses the per-part metadata blob (part_info.txt) shipped in
// vendor archives into a normalized Part record.
//
// The schema is strict: unknown, missing, or duplicated keys, malformed dates,
// and unrecognized 3D-model flags are all reported as faults.ErrSchema.
package partinfo
