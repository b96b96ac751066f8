// Package faults defines the error taxonomy shared by the catalog engine.
//
// Every fatal condition is tagged with one of the exported sentinel markers so
// the CLI can report the class of failure (schema, structure, duplicate,
// migration) while the message names the offending part number, category, or
// artifact. Use Wrap instead of ad-hoc fmt.Errorf calls when a failure should
// surface to the user.
package faults
