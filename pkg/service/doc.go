// Package service wires a model.Device, storage.Store, dispatch.Dispatcher,
// coap.Server and report.Engine into the single-threaded host loop
// described by spec.md §6: init, start (plain and/or secure), an
// outbound tick, and a bounded inbound poll, repeated until told to
// stop.
//
// Grounded on cmd/mash-device/main.go's wiring and shutdown shape
// (flag/YAML configuration, signal.Notify on SIGINT/SIGTERM, a select
// on the signal channel and ctx.Done), generalized from that command's
// ad-hoc construction into a reusable Service type so cmd/zclipd stays
// a thin flag/signal shell around it.
package service
