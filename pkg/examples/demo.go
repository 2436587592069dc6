package examples

import (
	"context"
	"sync"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// ZCL cluster ids, per the Zigbee Cluster Library specification (not
// engine-specific — these numbers are stable across any ZCLIP device).
const (
	ClusterBasic = 0x0000
	ClusterOnOff = 0x0006
)

// Basic cluster attribute ids.
const (
	AttrZCLVersion    = 0x0000
	AttrPowerSource   = 0x0007
	AttrDeviceEnabled = 0x0012
)

// OnOff cluster attribute ids.
const AttrOnOff = 0x0000

// DemoDevice is a minimal reference device: one endpoint exposing a
// Basic cluster (version/power-source/enabled-flag) and an On/Off
// cluster with a writable boolean, enough to exercise GET/PUT, binding
// creation and attribute-change reporting end to end.
type DemoDevice struct {
	mu      sync.Mutex
	device  *model.Device
	enabled bool
	on      bool
}

// NewDemoDevice builds the device tree on a single functional endpoint
// (id 1), grounded on the teacher's setupXEndpoint style of
// constructing one feature at a time and wiring a command/attribute
// handler closure per field, generalized from MASH features to ZCL
// clusters and attributes.
func NewDemoDevice() *DemoDevice {
	d := &DemoDevice{enabled: true}
	d.device = model.NewDevice()

	ep := model.NewEndpoint(1)
	ep.AddCluster(d.basicCluster())
	ep.AddCluster(d.onOffCluster())
	if err := d.device.AddEndpoint(ep); err != nil {
		panic(err) // unreachable: endpoint 1 is added exactly once
	}

	return d
}

// Device returns the constructed data model, ready to hand to
// service.New.
func (d *DemoDevice) Device() *model.Device { return d.device }

func (d *DemoDevice) basicCluster() *model.Cluster {
	cl := model.NewCluster(model.ClusterKey{Role: model.RoleServer, ID: ClusterBasic}, "basic")

	cl.AddAttribute(model.NewAttribute(AttrZCLVersion, "zcl-version", func() (wire.Value, error) {
		return wire.UintValue(8), nil
	}))
	cl.AddAttribute(model.NewAttribute(AttrPowerSource, "power-source", func() (wire.Value, error) {
		return wire.UintValue(1), nil // mains, single phase
	}))
	cl.AddAttribute(model.NewAttribute(AttrDeviceEnabled, "device-enabled", func() (wire.Value, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return wire.BoolValue(d.enabled), nil
	}).WithWriter(func(v wire.Value) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.enabled = v.Bool
		return nil
	}))

	return cl
}

func (d *DemoDevice) onOffCluster() *model.Cluster {
	cl := model.NewCluster(model.ClusterKey{Role: model.RoleServer, ID: ClusterOnOff}, "on-off")

	cl.AddAttribute(model.NewAttribute(AttrOnOff, "on-off", func() (wire.Value, error) {
		d.mu.Lock()
		defer d.mu.Unlock()
		return wire.BoolValue(d.on), nil
	}).WithWriter(func(v wire.Value) error {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.on = v.Bool
		return nil
	}))
	cl.AddCommand(model.NewCommand(0x00, "off", d.setOnCommand(false)))
	cl.AddCommand(model.NewCommand(0x01, "on", d.setOnCommand(true)))
	cl.AddCommand(model.NewCommand(0x02, "toggle", func(ctx context.Context, args []byte) ([]byte, error) {
		d.mu.Lock()
		d.on = !d.on
		d.mu.Unlock()
		return nil, nil
	}))

	return cl
}

// setOnCommand returns a CommandExecutor that sets the on/off state
// unconditionally, backing the ZCL Off (0x00) and On (0x01) commands.
func (d *DemoDevice) setOnCommand(on bool) model.CommandExecutor {
	return func(ctx context.Context, args []byte) ([]byte, error) {
		d.mu.Lock()
		d.on = on
		d.mu.Unlock()
		return nil, nil
	}
}
