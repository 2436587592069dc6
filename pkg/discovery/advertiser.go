package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// ServiceType is the mDNS service type a zclipd process advertises
// under, per SPEC_FULL.md §6's "ambient device advertisement" carve-out.
const ServiceType = "_zclip._udp"

// Domain is the standard mDNS domain.
const Domain = "local."

// Info names the fields advertised in the service record's TXT block.
type Info struct {
	// DeviceID is the service instance name.
	DeviceID string
	// Port is the plain-UDP CoAP listen port.
	Port int
	// VendorID and ProductID identify the device's manufacturer and
	// model, mirrored into TXT records the way Matter's commissionable
	// record advertises VID/PID (see the teacher's mdns.go), generalized
	// here from commissioning metadata to plain presence metadata.
	VendorID  uint16
	ProductID uint16
}

func (i Info) txtRecords() []string {
	return []string{
		fmt.Sprintf("vid=%04X", i.VendorID),
		fmt.Sprintf("pid=%04X", i.ProductID),
	}
}

// Advertiser registers and withdraws a single _zclip._udp mDNS service
// record for the local device. Grounded on the teacher's
// MDNSAdvertiser (pkg/discovery's zeroconf.Register call and
// mutex-guarded *zeroconf.Server lifecycle), narrowed from the
// teacher's multiple commissioning/operational/pairing record kinds to
// the one presence record ZCLIP needs.
type Advertiser struct {
	iface string

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an Advertiser. An empty ifaceName advertises on
// every interface, matching zeroconf.Register's own nil-interfaces
// convention.
func NewAdvertiser(ifaceName string) *Advertiser {
	return &Advertiser{iface: ifaceName}
}

func (a *Advertiser) interfaces() []net.Interface {
	if a.iface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.iface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Start registers the service record, replacing any previously
// registered one.
func (a *Advertiser) Start(info Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		info.DeviceID,
		ServiceType,
		Domain,
		info.Port,
		info.txtRecords(),
		a.interfaces(),
	)
	if err != nil {
		return fmt.Errorf("discovery: register %s: %w", info.DeviceID, err)
	}
	a.server = server
	return nil
}

// Stop withdraws the service record. Safe to call when nothing is
// registered.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
