// Package wire implements the CBOR wire format for ZCLIP value objects,
// URIs, bindings and report configurations.
//
// ZCLIP payloads are CBOR (RFC 8949), Content-Format application/cbor (60).
// Decoders here take a CBOR-decoded item and return a fully self-contained
// record, or an error on malformed input. "Self-contained" means a record
// owns any string data it references (host, path, text value) rather than
// aliasing the input buffer, so the record can be copied, stored, and
// reloaded independently of where it was first decoded — the persistence
// layer depends on this.
//
// # Relocatable records
//
// The original ZCLIP engine this package is modeled on stored absolute
// pointers into a record's own tail buffer and relied on remapping its
// backing file at a fixed virtual address to keep those pointers valid
// across restarts. This package takes the offset-based alternative the
// design notes call out as preferable: persisted records carry plain Go
// string fields, and the storage layer serializes/deserializes them
// through this package's Marshal/Unmarshal so there is nothing to "fix
// up" after a reload.
package wire
