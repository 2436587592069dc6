// Package model implements the ZCLIP device data model.
//
// # Device Model Hierarchy
//
// ZCLIP uses a 3-level hierarchy:
//
//	Device > Endpoint > Cluster
//
// A Device is the process-singleton root, fixed at startup. It owns an
// ordered set of Endpoints, each an 8-bit-addressed functional unit.
// Endpoints own Clusters, each identified by the triple (role, cluster
// id, manufacturer code?) where role distinguishes a client-side instance
// from a server-side one.
//
// # Clusters
//
// A Cluster exposes:
//   - Attributes: typed, named values with reader/writer callbacks
//   - Commands: invokable actions with an executor callback
//   - Bindings: a bounded, persistent array of outbound subscriptions
//   - Report configurations: a bounded, persistent array of reporting
//     policies
//   - An optional notification callback for inbound notification ingest
//
// Attributes and commands are static, declared once at startup from
// application-supplied data. Bindings and report configurations are
// dynamic: created by CoAP POST, updated by PUT, removed by DELETE, and
// persisted across restarts by the storage layer (see package storage).
package model
