package report

import "context"

// Sender transmits a non-confirmable CoAP POST to a binding's
// destination and reports whether it was accepted by the transport.
// Implemented by package coap; kept as an interface here so the engine
// can be exercised in tests without a socket.
type Sender interface {
	// SendNotification POSTs body (a CBOR map) to host:port+path with
	// Content-Format application/cbor, as a non-confirmable message.
	// The session is resolved and released internally; failures are
	// returned to the caller, who logs and continues (§6/§7: a failed
	// transmission never aborts the reporting walk).
	SendNotification(ctx context.Context, host string, port uint16, path string, body []byte) error
}
