// Package preflight provides readiness checks for the project directory and
// the catalog files partcat is about to rewrite.
//
// Commands that modify a project call RunAll before taking the project lock.
// A failed check aborts the command before any planning starts, so a
// read-only library table is reported up front instead of at commit time.
package preflight
