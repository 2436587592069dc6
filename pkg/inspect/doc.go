// Package inspect parses the shorthand path syntax used by cmd/zclipd's
// interactive REPL (e.g. "1/s6/0" for endpoint 1, server cluster 6,
// attribute 0) and reads/writes attributes against a local model.Device
// by that path, formatting values for terminal display.
//
// Narrowed from the teacher's pkg/inspect, which additionally resolved
// feature/attribute names from a fixed MASH name table and inspected
// remote devices over the wire — ZCL cluster/attribute ids are
// application-defined rather than drawn from a fixed table, and this
// engine's REPL only ever inspects its own process, so neither carries
// over.
package inspect
