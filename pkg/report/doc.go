// Package report implements the reporting engine (C7): the outbound
// tick driven by the host loop that walks a device's endpoints,
// clusters and bindings, emits attribute-change notifications to due
// peers, and returns a sleep hint for the next tick.
//
// The engine has no goroutine of its own — per the single-threaded
// cooperative model (spec.md §5), the host loop calls Tick once per
// outbound turn and reads the returned interval to size its next
// bounded inbound poll.
package report
