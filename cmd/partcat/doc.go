// Package main hosts the partcat CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, opens
// vendor archives, and hands the heavy lifting to the importer and migrate
// packages. Output is human-readable by default; --json switches every
// command to machine-readable documents on stdout while logs stay on stderr.
package main
