package report

import (
	"context"
	"strconv"
	"time"

	"github.com/zclip-go/zclipd/pkg/log"
	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/storage"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// MaxSleepHint is the cap on the tick's returned sleep hint, in
// seconds, matching the C engine's uint16 "next poll timeout" return
// value (§4.7).
const MaxSleepHint = 0xFFFF

// Now is the engine's clock, overridable in tests.
var Now = time.Now

// Engine implements the reporting engine (C7): the outbound tick that
// walks device.endpoints x cluster x bindings, emits due notifications,
// and returns a sleep hint for the next tick.
type Engine struct {
	device *model.Device
	store  *storage.Store
	sender Sender
	origin string // host used to build the "u" source URI, e.g. "device.local"
	logger log.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger attaches a protocol event logger. Defaults to a NoopLogger.
func WithLogger(l log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New constructs a reporting engine over a device tree, its storage and
// a Sender used for outbound transmission. origin is this device's own
// host, embedded in the "u" field of every notification it sends.
func New(device *model.Device, store *storage.Store, sender Sender, origin string, opts ...Option) *Engine {
	e := &Engine{device: device, store: store, sender: sender, origin: origin, logger: log.NoopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type notificationPayload struct {
	Attributes map[uint16]any `cbor:"a"`
	BindingID  uint8          `cbor:"b"`
	ReportID   uint8          `cbor:"r"`
	Timestamp  int64          `cbor:"t"`
	Source     string         `cbor:"u"`
}

// Tick walks every binding on every cluster on every endpoint, emitting
// a notification to each binding whose paired report configuration is
// due, and returns the sleep hint for the host loop's next bounded
// inbound poll: the minimum across all bindings of
// min_reporting_interval - elapsed, capped at MaxSleepHint.
func (e *Engine) Tick(ctx context.Context) uint16 {
	now := Now()
	hint := uint16(MaxSleepHint)

	for _, endpoint := range e.device.Endpoints() {
		for _, cluster := range endpoint.Clusters() {
			for _, binding := range cluster.Bindings() {
				if binding.ReportID == 0 {
					continue
				}
				rc, err := cluster.Report(binding.ReportID)
				if err != nil {
					continue
				}

				elapsed := now.Sub(binding.Timestamp)
				remaining := time.Duration(rc.MinInterval)*time.Second - elapsed
				if remaining <= 0 {
					e.emit(ctx, endpoint, cluster, binding, rc, now)
					continue
				}
				if h := capHint(remaining); h < hint {
					hint = h
				}
			}
		}
	}

	return hint
}

func capHint(remaining time.Duration) uint16 {
	seconds := int64(remaining / time.Second)
	if seconds < 0 {
		return 0
	}
	if seconds > MaxSleepHint {
		return MaxSleepHint
	}
	return uint16(seconds)
}

func (e *Engine) emit(ctx context.Context, endpoint *model.Endpoint, cluster *model.Cluster, binding *model.Binding, rc *model.ReportConfig, now time.Time) {
	attrs := make(map[uint16]any, len(rc.Attributes))
	for _, ra := range rc.Attributes {
		attr, err := cluster.Attribute(ra.AttributeID)
		if err != nil {
			continue
		}
		v, err := attr.Read()
		if err != nil {
			continue
		}
		item, err := wire.MarshalValue(v)
		if err != nil {
			continue
		}
		attrs[ra.AttributeID] = item
	}

	payload := notificationPayload{
		Attributes: attrs,
		BindingID:  binding.ID,
		ReportID:   rc.ID,
		Timestamp:  now.Unix(),
		Source:     e.sourceURI(endpoint, cluster),
	}

	body, err := wire.Marshal(payload)
	if err != nil {
		e.logError("encode notification", err)
		return
	}

	if err := e.sender.SendNotification(ctx, binding.URI.Host, binding.URI.Port, binding.URI.Path, body); err != nil {
		e.logError("send notification", err)
		return
	}

	binding.Timestamp = now
	if err := e.store.UpdateBinding(endpoint.ID(), uint16(cluster.Key().ID), binding); err != nil {
		e.logError("persist binding timestamp", err)
	}
}

func (e *Engine) sourceURI(endpoint *model.Endpoint, cluster *model.Cluster) string {
	key := cluster.Key()
	role := byte(key.Role)
	path := "/zcl/e/" + hexByte(endpoint.ID()) + "/" + string(role) + hexUint16(key.ID)
	return "coap://" + e.origin + path
}

func hexByte(b uint8) string    { return strconv.FormatUint(uint64(b), 16) }
func hexUint16(v uint16) string { return strconv.FormatUint(uint64(v), 16) }

func (e *Engine) logError(context string, err error) {
	code := -1
	e.logger.Log(log.Event{
		Timestamp: Now(),
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
