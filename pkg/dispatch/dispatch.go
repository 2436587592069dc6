package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/zclip-go/zclipd/pkg/log"
	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/storage"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// Dispatcher is the single handler registered for DELETE/GET/POST/PUT
// on any URI (§4.5). It holds no state of its own beyond the device
// tree and storage it was built with.
type Dispatcher struct {
	device *model.Device
	store  *storage.Store
	logger log.Logger
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithLogger overrides the default NoopLogger.
func WithLogger(l log.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New constructs a Dispatcher over a device tree and its storage
// tables.
func New(device *model.Device, store *storage.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{device: device, store: store, logger: log.NoopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) logError(context string, err error) {
	code := -1
	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Code:    &code,
			Context: context,
		},
	})
}

// Dispatch routes a request through the resource hierarchy to its
// handler. It never returns an error: every failure mode maps to a
// Response per §4.5/§4.6, matching the C engine's synchronous,
// always-completes dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	res, err := parsePath(req.Path)
	if err != nil {
		return missing(req.Method)
	}

	switch res.kind {
	case resRoot:
		return d.handleRoot(req.Method)
	case resEndpoints:
		return d.handleEndpoints(req.Method)
	case resEndpoint:
		return d.handleEndpoint(req.Method, res)
	case resCluster:
		return d.handleClusterIndex(req.Method, res)
	case resAttributes:
		return d.handleAttributes(req.Method, req.Query, res)
	case resAttribute:
		return d.handleAttribute(req.Method, req.Body, res)
	case resBindings:
		return d.handleBindings(req.Method, req.Body, res)
	case resBinding:
		return d.handleBinding(req.Method, req.Body, res)
	case resCommands:
		return d.handleCommands(req.Method, res)
	case resCommand:
		return d.handleCommand(ctx, req.Method, req.Body, res)
	case resNotify:
		return d.handleNotify(ctx, req.Method, req.Body, req.Peer, res)
	case resReports:
		return d.handleReports(req.Method, req.Body, res)
	case resReport:
		return d.handleReport(req.Method, req.Body, res)
	default:
		return missing(req.Method)
	}
}

// missing implements the resource-not-found mapping of §4.5: DELETE is
// idempotent success, everything else is 4.04.
func missing(m Method) Response {
	if m == MethodDELETE {
		return deleted()
	}
	return notFound()
}

func (d *Dispatcher) lookupCluster(res resource) (*model.Endpoint, *model.Cluster, bool) {
	endpoint, err := d.device.Endpoint(res.eid)
	if err != nil {
		return nil, nil, false
	}
	cluster, err := endpoint.Cluster(res.key)
	if err != nil {
		return nil, nil, false
	}
	return endpoint, cluster, true
}

func (d *Dispatcher) handleRoot(m Method) Response {
	if m != MethodGET {
		return methodNotAllowed()
	}
	body, err := wire.Marshal([]string{"e"})
	if err != nil {
		return internalError()
	}
	return content(body)
}

func (d *Dispatcher) handleEndpoints(m Method) Response {
	if m != MethodGET {
		return methodNotAllowed()
	}
	ids := make([]uint8, 0)
	for _, e := range d.device.Endpoints() {
		ids = append(ids, e.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	body, err := wire.Marshal(ids)
	if err != nil {
		return internalError()
	}
	return content(body)
}

func (d *Dispatcher) handleEndpoint(m Method, res resource) Response {
	endpoint, err := d.device.Endpoint(res.eid)
	if err != nil {
		return missing(m)
	}
	if m != MethodGET {
		return methodNotAllowed()
	}
	type clusterID struct {
		Role         string `cbor:"role"`
		ID           uint16 `cbor:"id"`
		Manufacturer uint16 `cbor:"manufacturer,omitempty"`
	}
	clusters := make([]clusterID, 0)
	for _, c := range endpoint.Clusters() {
		key := c.Key()
		entry := clusterID{Role: string(rune(key.Role)), ID: key.ID}
		if key.HasManufacturer {
			entry.Manufacturer = key.Manufacturer
		}
		clusters = append(clusters, entry)
	}
	body, err := wire.Marshal(clusters)
	if err != nil {
		return internalError()
	}
	return content(body)
}

func (d *Dispatcher) handleClusterIndex(m Method, res resource) Response {
	_, _, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	if m != MethodGET {
		return methodNotAllowed()
	}
	body, err := wire.Marshal([]string{"a", "b", "c", "n", "r"})
	if err != nil {
		return internalError()
	}
	return content(body)
}
