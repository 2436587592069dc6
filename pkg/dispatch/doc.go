// Package dispatch implements the ZCLIP request dispatcher (C5) and its
// per-resource handlers (C6): percent-decoding and tokenizing a request
// URI, walking the zcl/e/<eid>/<cl>/{a,b,c,n,r}/<id> hierarchy, and
// invoking the matching operation against a model.Device and
// storage.Store.
//
// Package coap owns the transport; it decodes a CoAP PDU into a
// Request and encodes a Response back into a PDU. Keeping the two
// separate lets the dispatcher be exercised directly in tests without a
// socket.
package dispatch
