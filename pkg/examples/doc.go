// Package examples builds a small reference device tree for
// cmd/zclipd's default run: a basic cluster (ZCL version, power source,
// a writable device-enabled flag) and an on/off cluster, enough to
// exercise reads, writes, bindings and reporting without every
// deployment needing to hand-assemble a device from package model.
package examples
