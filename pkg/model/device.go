package model

import "errors"

// Device errors.
var ErrDuplicateEndpoint = errors.New("model: duplicate endpoint id")

// Device is the process-singleton root of the ZCL data model, fixed at
// startup. It owns the full set of endpoints hosted by the process; in
// the single-threaded dispatch/reporting model (see package report)
// there is never more than one goroutine mutating it at a time, so it
// carries no internal locking of its own.
type Device struct {
	endpoints map[uint8]*Endpoint
	order     []uint8
}

// NewDevice creates an empty device.
func NewDevice() *Device {
	return &Device{endpoints: make(map[uint8]*Endpoint)}
}

// AddEndpoint adds an endpoint to the device. Returns an error if an
// endpoint with the same id already exists.
func (d *Device) AddEndpoint(e *Endpoint) error {
	if _, exists := d.endpoints[e.ID()]; exists {
		return ErrDuplicateEndpoint
	}
	d.endpoints[e.ID()] = e
	d.order = append(d.order, e.ID())
	return nil
}

// Endpoint looks up an endpoint by id.
func (d *Device) Endpoint(id uint8) (*Endpoint, error) {
	e, ok := d.endpoints[id]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return e, nil
}

// Endpoints returns every endpoint, in the order they were added.
func (d *Device) Endpoints() []*Endpoint {
	result := make([]*Endpoint, 0, len(d.order))
	for _, id := range d.order {
		result = append(result, d.endpoints[id])
	}
	return result
}
