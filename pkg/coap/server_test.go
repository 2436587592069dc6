package coap

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/zclip-go/zclipd/pkg/dispatch"
	"github.com/zclip-go/zclipd/pkg/log"
	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/storage"
	"github.com/zclip-go/zclipd/pkg/wire"
)

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	store, err := storage.Open(t.TempDir() + "/zclip.dat")
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dev := model.NewDevice()
	ep := model.NewEndpoint(1)
	cl := model.NewCluster(model.ClusterKey{Role: model.RoleServer, ID: 6}, "basic")
	cl.AddAttribute(model.NewAttribute(0, "zcl-version", func() (wire.Value, error) {
		return wire.UintValue(3), nil
	}))
	ep.AddCluster(cl)
	if err := dev.AddEndpoint(ep); err != nil {
		t.Fatalf("AddEndpoint() error = %v", err)
	}
	if err := store.Link(dev); err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	return dispatch.New(dev, store)
}

func TestServer_HandleDatagramRoundTrip(t *testing.T) {
	server := &Server{
		config:     Config{Logger: log.NoopLogger{}},
		dispatcher: newTestDispatcher(t),
		ctx:        context.Background(),
	}

	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(server) error = %v", err)
	}
	defer serverConn.Close()

	peerConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(peer) error = %v", err)
	}
	defer peerConn.Close()
	peerAddr := peerConn.LocalAddr().(*net.UDPAddr)

	req := &Message{Type: TypeConfirmable, Code: 1, MessageID: 99, Token: []byte{0x01}}
	req.AddOption(OptionURIPath, []byte("zcl"))
	req.AddOption(OptionURIPath, []byte("e"))
	req.AddOption(OptionURIPath, []byte("1"))
	req.AddOption(OptionURIPath, []byte("s6"))
	req.AddOption(OptionURIPath, []byte("a"))
	req.AddOption(OptionURIPath, []byte("0"))
	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	server.handleDatagram(&listener{conn: serverConn, name: "test"}, peerAddr, encoded)

	if err := peerConn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	buf := make([]byte, readBufferSize)
	n, err := peerConn.Read(buf)
	if err != nil {
		t.Fatalf("Read(response) error = %v", err)
	}

	resp, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode(response) error = %v", err)
	}
	if resp.Type != TypeAcknowledgement {
		t.Errorf("response Type = %v, want TypeAcknowledgement (request was confirmable)", resp.Type)
	}
	if resp.Code != uint8(dispatch.CodeContent) {
		t.Errorf("response Code = %#x, want %#x (2.05 Content)", resp.Code, dispatch.CodeContent)
	}
	if resp.MessageID != req.MessageID {
		t.Errorf("response MessageID = %d, want %d", resp.MessageID, req.MessageID)
	}

	var decoded map[uint64]any
	if err := wire.Unmarshal(resp.Payload, &decoded); err != nil {
		t.Fatalf("Unmarshal(payload) error = %v", err)
	}
	if v, ok := decoded[0]; !ok || v == nil {
		t.Errorf("payload = %v, want {0: 3}", decoded)
	}
}

func TestServer_ProcessIncomingDispatchesQueuedDatagram(t *testing.T) {
	server := &Server{
		config:     Config{Logger: log.NoopLogger{}},
		dispatcher: newTestDispatcher(t),
		ctx:        context.Background(),
		inbound:    make(chan datagram, inboundQueueSize),
	}

	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(server) error = %v", err)
	}
	defer serverConn.Close()

	peerConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(peer) error = %v", err)
	}
	defer peerConn.Close()
	peerAddr := peerConn.LocalAddr().(*net.UDPAddr)

	req := &Message{Type: TypeNonConfirmable, Code: 1, MessageID: 7}
	req.AddOption(OptionURIPath, []byte("zcl"))
	req.AddOption(OptionURIPath, []byte("e"))
	req.AddOption(OptionURIPath, []byte("1"))
	req.AddOption(OptionURIPath, []byte("s6"))
	req.AddOption(OptionURIPath, []byte("a"))
	req.AddOption(OptionURIPath, []byte("0"))
	encoded, err := req.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Simulate a listener goroutine enqueueing a raw arrival: this is
	// the only thing readLoop does now, so ProcessIncoming is what must
	// decode and dispatch it.
	server.inbound <- datagram{l: &listener{conn: serverConn, name: "test"}, peer: peerAddr, data: encoded}

	if processed := server.ProcessIncoming(context.Background(), time.Second); !processed {
		t.Fatal("ProcessIncoming() = false, want true (a datagram was queued)")
	}

	if err := peerConn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	buf := make([]byte, readBufferSize)
	n, err := peerConn.Read(buf)
	if err != nil {
		t.Fatalf("Read(response) error = %v", err)
	}
	resp, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode(response) error = %v", err)
	}
	if resp.Code != uint8(dispatch.CodeContent) {
		t.Errorf("response Code = %#x, want %#x (2.05 Content)", resp.Code, dispatch.CodeContent)
	}
}

func TestServer_ProcessIncomingTimesOutWhenIdle(t *testing.T) {
	server := &Server{
		config:     Config{Logger: log.NoopLogger{}},
		dispatcher: newTestDispatcher(t),
		ctx:        context.Background(),
		inbound:    make(chan datagram, inboundQueueSize),
	}

	start := time.Now()
	if processed := server.ProcessIncoming(context.Background(), 50*time.Millisecond); processed {
		t.Error("ProcessIncoming() = true, want false (nothing queued)")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("ProcessIncoming() returned after %v, want at least 50ms", elapsed)
	}
}

func TestServer_HandleDatagramUnknownResourceReturnsNotFound(t *testing.T) {
	server := &Server{
		config:     Config{Logger: log.NoopLogger{}},
		dispatcher: newTestDispatcher(t),
		ctx:        context.Background(),
	}

	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(server) error = %v", err)
	}
	defer serverConn.Close()
	peerConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP(peer) error = %v", err)
	}
	defer peerConn.Close()
	peerAddr := peerConn.LocalAddr().(*net.UDPAddr)

	req := &Message{Type: TypeNonConfirmable, Code: 1, MessageID: 1}
	req.AddOption(OptionURIPath, []byte("zcl"))
	req.AddOption(OptionURIPath, []byte("e"))
	req.AddOption(OptionURIPath, []byte("9"))
	encoded, _ := req.Encode()

	server.handleDatagram(&listener{conn: serverConn, name: "test"}, peerAddr, encoded)

	if err := peerConn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	buf := make([]byte, readBufferSize)
	n, err := peerConn.Read(buf)
	if err != nil {
		t.Fatalf("Read(response) error = %v", err)
	}
	resp, err := Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode(response) error = %v", err)
	}
	if resp.Code != uint8(dispatch.CodeNotFound) {
		t.Errorf("response Code = %#x, want %#x (4.04)", resp.Code, dispatch.CodeNotFound)
	}
}
