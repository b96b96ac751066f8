// Package history persists a per-project ledger of catalog changes in SQLite.
//
// Every committed import, blank-part creation, and migration merge appends
// one row per affected part or library. The ledger is informational: callers
// log failures to write it and carry on. The table layout version lives in
// SQLite's user_version; a ledger stamped by a different build is refused
// rather than migrated.
package history
