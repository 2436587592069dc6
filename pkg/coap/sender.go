package coap

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
)

// DialTimeout bounds DNS resolution and the outbound send, matching
// spec.md §5's "synchronous, bounded" DNS resolution and single
// outbound `send` suspension points.
const DialTimeout = 5 * time.Second

// Client implements report.Sender: it resolves a binding's host,
// opens a short-lived UDP session, and sends a single non-confirmable
// POST, closing the session immediately after — "create a session,
// send, release" per spec.md §4.7's transmission description.
type Client struct{}

// NewClient constructs a Client. It holds no state: every send opens
// and releases its own UDP session, per spec.md §4.7.
func NewClient() *Client { return &Client{} }

// SendNotification resolves host (DNS, first answer, per §4.7),
// dials a UDP session bounded by DialTimeout, and sends a
// non-confirmable CoAP POST with the given path, Content-Format
// application/cbor, and body.
func (c *Client) SendNotification(ctx context.Context, host string, port uint16, path string, body []byte) error {
	if port == 0 {
		port = DefaultPlainPort
	}

	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "udp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return fmt.Errorf("coap: resolve/dial %s: %w", host, err)
	}
	defer conn.Close()

	msg := &Message{
		Type:      TypeNonConfirmable,
		Code:      2, // POST, matching dispatch.MethodPOST's numeric value
		MessageID: nextMessageID(),
		Token:     newToken(),
	}
	for _, seg := range splitPath(path) {
		msg.AddOption(OptionURIPath, []byte(seg))
	}
	msg.AddOption(OptionContentFormat, []byte{ContentFormatCBOR})
	msg.Payload = body

	encoded, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("coap: encode notification: %w", err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(DialTimeout)); err != nil {
		return fmt.Errorf("coap: set write deadline: %w", err)
	}
	if _, err := conn.Write(encoded); err != nil {
		return fmt.Errorf("coap: send notification to %s: %w", host, err)
	}
	return nil
}

// newToken generates a short random token per outbound request, using
// the same uuid dependency the teacher's connection layer uses for
// identifiers elsewhere in the stack.
func newToken() []byte {
	id := uuid.New()
	return id[:4]
}

var messageIDCounter uint32

// nextMessageID returns a monotonically increasing 16-bit message id.
// Non-confirmable notifications never need de-duplication against a
// reply, but RFC 7252 still requires a MessageID field.
func nextMessageID() uint16 {
	messageIDCounter++
	return uint16(messageIDCounter)
}
