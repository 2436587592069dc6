// Package discovery advertises a running device over mDNS so peers can
// find it without a hardcoded address. This is ambient device-presence
// advertisement only — ZCLIP names no discovery protocol of its own
// (spec.md's Non-goals), so there is no browsing, pairing, or
// commissioning here, only a single service record.
package discovery
