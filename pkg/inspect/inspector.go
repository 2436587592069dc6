package inspect

import (
	"fmt"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// Inspector reads and writes attributes on a local device by Path,
// for use by a REPL or test harness.
type Inspector struct {
	device *model.Device
}

// NewInspector wraps a device for path-based inspection.
func NewInspector(device *model.Device) *Inspector {
	return &Inspector{device: device}
}

func (i *Inspector) resolveCluster(p *Path) (*model.Cluster, error) {
	ep, err := i.device.Endpoint(p.EndpointID)
	if err != nil {
		return nil, fmt.Errorf("inspect: endpoint %d: %w", p.EndpointID, err)
	}
	cl, err := ep.Cluster(model.ClusterKey{Role: p.Role, ID: p.ClusterID})
	if err != nil {
		return nil, fmt.Errorf("inspect: cluster %c%04x: %w", p.Role, p.ClusterID, err)
	}
	return cl, nil
}

// Read returns a single attribute's current value.
func (i *Inspector) Read(p *Path) (wire.Value, *model.Attribute, error) {
	cl, err := i.resolveCluster(p)
	if err != nil {
		return wire.Value{}, nil, err
	}
	attr, err := cl.Attribute(p.AttributeID)
	if err != nil {
		return wire.Value{}, nil, fmt.Errorf("inspect: attribute %#x: %w", p.AttributeID, err)
	}
	v, err := attr.Read()
	if err != nil {
		return wire.Value{}, nil, err
	}
	return v, attr, nil
}

// ReadAll returns every declared attribute on a cluster, for a partial
// path (no attribute segment).
func (i *Inspector) ReadAll(p *Path) (map[uint16]wire.Value, error) {
	cl, err := i.resolveCluster(p)
	if err != nil {
		return nil, err
	}
	out := make(map[uint16]wire.Value, len(cl.AttributeIDs()))
	for _, id := range cl.AttributeIDs() {
		attr, err := cl.Attribute(id)
		if err != nil {
			continue
		}
		v, err := attr.Read()
		if err != nil {
			return nil, fmt.Errorf("inspect: read attribute %#x: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

// Write sets an attribute's value, rejecting the write if the
// attribute has no writer attached.
func (i *Inspector) Write(p *Path, v wire.Value) error {
	cl, err := i.resolveCluster(p)
	if err != nil {
		return err
	}
	attr, err := cl.Attribute(p.AttributeID)
	if err != nil {
		return fmt.Errorf("inspect: attribute %#x: %w", p.AttributeID, err)
	}
	if !attr.Writable() {
		return fmt.Errorf("inspect: attribute %#x (%s) is read-only", p.AttributeID, attr.Name())
	}
	return attr.Write(v)
}
