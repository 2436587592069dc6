// Package storage implements the persistent binding and report
// configuration tables: two fixed-length arrays of fixed-size rows,
// memory-mapped against a single backing file so the process picks up
// where it left off after a restart.
//
// # File layout
//
// The backing file is exactly tableBytes*2 bytes: the bindings table
// first, the reports table second, each tableRows rows of rowSize
// bytes. A row holds a validity flag, the owning endpoint id, the
// owning cluster id, and a CBOR-encoded record payload:
//
//	byte 0:      validity (0 = free, 1 = occupied)
//	byte 1:      endpoint id
//	bytes 2-3:   cluster id, big-endian
//	bytes 4-5:   payload length, big-endian
//	bytes 6-:    CBOR payload (package wire encoding)
//
// The original engine this package is modeled on stored records as
// relocatable structures with internal pointers into a tail buffer,
// fixed up on every copy because the table was mapped at a process-fixed
// virtual address. A Go slice backing a []byte never needs its own
// address pinned, so rows here hold plain Go values marshaled through
// package wire on every Put/Update/Link and unmarshaled on every read —
// there is nothing to "fix up".
package storage
