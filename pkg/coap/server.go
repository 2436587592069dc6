package coap

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zclip-go/zclipd/pkg/dispatch"
	"github.com/zclip-go/zclipd/pkg/log"
)

// Multicast groups C4 must join, per spec.md §4.4/§6.
var MulticastGroups = []string{"ff03::fd", "ff04::fd", "ff05::fd"}

const (
	// DefaultPlainPort is the plain-UDP listen port (spec.md §6).
	DefaultPlainPort = 5683
	// DefaultSecurePort is the DTLS listen port (spec.md §6).
	DefaultSecurePort = 5684

	readBufferSize = 4096
	pollInterval   = 500 * time.Millisecond
)

// PSK is the pre-shared key identity/key pair configured for the DTLS
// listeners. Per spec.md §4.4 the security surface is a placeholder:
// the engine requires only that an identity and key be configurable,
// not a working DTLS handshake.
type PSK struct {
	Identity string
	Key      []byte
}

// Config configures a Server's listen addresses.
type Config struct {
	// Interface bound to the UDP listeners (nil selects every
	// interface), matching ListenMulticastUDP's own "any" convention.
	Interface *net.Interface

	// PlainPort is the port for the four RFC 7252 listeners (unicast +
	// three multicast groups). Defaults to DefaultPlainPort.
	PlainPort int

	// SecurePort is the port for the DTLS-shaped listeners. Zero
	// disables the secure listeners (StartSecure becomes a no-op).
	SecurePort int

	// PSK is the configured pre-shared key. It is kept as configuration
	// data only; the secure listeners do not read it.
	PSK *PSK

	// Logger receives an error event whenever a datagram is dropped or
	// fails to decode, encode or send. Defaults to a NoopLogger.
	Logger log.Logger
}

// listener pairs a UDP connection with the address it was opened for,
// so errors and logs can name which of the four endpoints misbehaved.
type listener struct {
	conn *net.UDPConn
	name string
}

// inboundQueueSize bounds how many not-yet-dispatched datagrams a
// listener goroutine may buffer before new arrivals are dropped. A
// single-threaded dispatcher (see model.Device's doc comment) cannot
// be outrun indefinitely by four listener goroutines, so this is a
// deliberate, logged backpressure point rather than an unbounded queue.
const inboundQueueSize = 64

// datagram is a raw, not-yet-decoded arrival handed from a listener's
// read loop to ProcessIncoming.
type datagram struct {
	l    *listener
	peer *net.UDPAddr
	data []byte
}

// Server is the CoAP transport surface (C4). Its listener goroutines
// only read raw UDP datagrams and queue them; decoding, dispatching,
// and encoding the response all happen on ProcessIncoming's caller, so
// a single goroutine ever touches the dispatch.Dispatcher and the
// model.Device tree behind it — matching spec.md §5's single-threaded
// dispatch/reporting model without blocking the network layer itself
// on bufferless channel sends.
//
// Grounded on pkg/transport/server.go's Server shape (atomic running
// flag, context-scoped listener goroutines, WaitGroup lifecycle,
// Logger field) generalized from a single TCP+TLS listener to CoAP's
// four concurrent UDP endpoints, and on the deadline-based read loop
// shown in other_examples' Shelly CoIoT transport for cooperative
// shutdown without a second signalling channel.
type Server struct {
	config     Config
	dispatcher *dispatch.Dispatcher

	plain  []*listener
	secure []*listener

	inbound chan datagram

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer constructs a Server around a dispatcher. It does not open
// any sockets; call Start and/or StartSecure.
func NewServer(dispatcher *dispatch.Dispatcher, config Config) *Server {
	if config.PlainPort == 0 {
		config.PlainPort = DefaultPlainPort
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}
	return &Server{
		config:     config,
		dispatcher: dispatcher,
		inbound:    make(chan datagram, inboundQueueSize),
	}
}

// Start opens the plain-UDP unicast listener and the three multicast
// group listeners on PlainPort, and begins serving requests on all
// four.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("coap: server already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	unicast, err := s.listenUnicast(s.config.PlainPort)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.plain = append(s.plain, unicast)

	for _, group := range MulticastGroups {
		ml, err := s.listenMulticast(group, s.config.PlainPort)
		if err != nil {
			s.stopAll(s.plain)
			s.running.Store(false)
			return err
		}
		s.plain = append(s.plain, ml)
	}

	for _, l := range s.plain {
		s.serve(l)
	}
	return nil
}

// StartSecure opens the same four endpoints on SecurePort. They are
// plain UDP sockets: no DTLS handshake is performed and Config.PSK is
// not consulted. A zero SecurePort makes this a no-op, since a device
// may run plain-only during development.
func (s *Server) StartSecure(ctx context.Context) error {
	if s.config.SecurePort == 0 {
		return nil
	}
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}
	s.running.Store(true)

	unicast, err := s.listenUnicast(s.config.SecurePort)
	if err != nil {
		return err
	}
	s.secure = append(s.secure, unicast)

	for _, group := range MulticastGroups {
		ml, err := s.listenMulticast(group, s.config.SecurePort)
		if err != nil {
			s.stopAll(s.secure)
			return err
		}
		s.secure = append(s.secure, ml)
	}

	for _, l := range s.secure {
		s.serve(l)
	}
	return nil
}

func (s *Server) listenUnicast(port int) (*listener, error) {
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("coap: listen unicast :%d: %w", port, err)
	}
	return &listener{conn: conn, name: fmt.Sprintf("unicast:%d", port)}, nil
}

func (s *Server) listenMulticast(group string, port int) (*listener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(group), Port: port, Zone: ifaceName(s.config.Interface)}
	conn, err := net.ListenMulticastUDP("udp6", s.config.Interface, addr)
	if err != nil {
		return nil, fmt.Errorf("coap: listen multicast %s:%d: %w", group, port, err)
	}
	if err := conn.SetReadBuffer(readBufferSize); err != nil {
		conn.Close()
		return nil, fmt.Errorf("coap: set read buffer %s:%d: %w", group, port, err)
	}
	return &listener{conn: conn, name: fmt.Sprintf("multicast:%s:%d", group, port)}, nil
}

func ifaceName(iface *net.Interface) string {
	if iface == nil {
		return ""
	}
	return iface.Name
}

// serve starts the read loop for one listener in its own goroutine.
func (s *Server) serve(l *listener) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readLoop(l)
	}()
}

// readLoop polls the listener with a bounded deadline so it notices
// context cancellation without a second stop channel, matching the
// deadline-then-recheck pattern used for the Shelly CoIoT listener.
func (s *Server) readLoop(l *listener) {
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return
		}

		n, peer, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if s.running.Load() {
				s.logError(l.name, err)
			}
			continue
		}

		dg := datagram{l: l, peer: peer, data: append([]byte(nil), buf[:n]...)}
		select {
		case s.inbound <- dg:
		case <-s.ctx.Done():
			return
		default:
			s.logError(l.name, fmt.Errorf("coap: inbound queue full, dropping datagram from %s", peer))
		}
	}
}

// ProcessIncoming waits up to timeout for one queued datagram and, if
// one arrives, decodes it, runs it through the dispatcher, and writes
// the encoded response back to its sender. It reports whether a
// datagram was processed.
//
// This is the engine's process_incoming(timeout_ms) host-loop entry
// point (spec.md §6): it is the only place that calls the dispatcher,
// so it must only ever be invoked from one goroutine at a time — the
// listener goroutines themselves never touch the model tree, only this
// method does, which is what lets model.Device go without its own
// locking.
func (s *Server) ProcessIncoming(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case dg := <-s.inbound:
		s.handleDatagram(dg.l, dg.peer, dg.data)
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Server) handleDatagram(l *listener, peer *net.UDPAddr, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		s.logError(l.name, err)
		return
	}

	// This engine only serves requests (GET/POST/PUT/DELETE); ACKs,
	// resets and confirmable pings from peers are silently ignored.
	req := dispatch.Request{
		Method: dispatch.Method(msg.Code),
		Path:   msg.URIPath(),
		Query:  msg.URIQuery(),
		Body:   msg.Payload,
		Peer:   peer.String(),
	}
	if req.Method < dispatch.MethodGET || req.Method > dispatch.MethodDELETE {
		return
	}

	resp := s.dispatcher.Dispatch(s.ctx, req)

	out := &Message{
		Type:      ackType(msg.Type),
		Code:      uint8(resp.Code),
		MessageID: msg.MessageID,
		Token:     msg.Token,
	}
	// Location-Path (8) is added before Content-Format (12), since
	// Encode requires ascending option numbers.
	const optionLocationPath = 8
	if resp.LocationPath != "" {
		for _, seg := range splitPath(resp.LocationPath) {
			out.AddOption(optionLocationPath, []byte(seg))
		}
	}
	if resp.Body != nil {
		out.AddOption(OptionContentFormat, []byte{ContentFormatCBOR})
		out.Payload = resp.Body
	}

	encoded, err := out.Encode()
	if err != nil {
		s.logError(l.name, err)
		return
	}
	if _, err := l.conn.WriteToUDP(encoded, peer); err != nil {
		s.logError(l.name, err)
	}
}

// ackType mirrors a confirmable request with an acknowledgement and a
// non-confirmable request with a non-confirmable response, per RFC
// 7252 §4.2's piggybacked-response rule.
func ackType(reqType Type) Type {
	if reqType == TypeConfirmable {
		return TypeAcknowledgement
	}
	return TypeNonConfirmable
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				segs = append(segs, path[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

func (s *Server) logError(source string, err error) {
	code := -1
	s.config.Logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerTransport,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Code:    &code,
			Context: source,
		},
	})
}

// Stop closes every open listener and waits for their read loops to
// exit.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}
	s.stopAll(s.plain)
	s.stopAll(s.secure)
	s.wg.Wait()
	return nil
}

func (s *Server) stopAll(listeners []*listener) {
	for _, l := range listeners {
		l.conn.Close()
	}
}
