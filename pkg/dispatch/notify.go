package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

type notificationPayload struct {
	Attributes map[uint64]any `cbor:"a"`
	BindingID  uint64         `cbor:"b"`
	ReportID   uint64         `cbor:"r"`
	Timestamp  int64          `cbor:"t"`
	Source     string         `cbor:"u"`
}

func (d *Dispatcher) handleNotify(ctx context.Context, m Method, body []byte, peer string, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	if m != MethodPOST {
		return methodNotAllowed()
	}

	var raw notificationPayload
	if err := wire.Unmarshal(body, &raw); err != nil {
		return badRequest()
	}

	attrs := make(map[uint16]wire.Value, len(raw.Attributes))
	for aid, item := range raw.Attributes {
		v, err := wire.DecodeValueItem(item)
		if err != nil {
			return badRequest()
		}
		attrs[uint16(aid)] = v
	}

	n := model.Notification{
		Attributes: attrs,
		BindingID:  uint8(raw.BindingID),
		ReportID:   uint8(raw.ReportID),
		Timestamp:  time.Unix(raw.Timestamp, 0).UTC(),
		Source:     raw.Source,
	}
	if n.Source == "" {
		n.Source = peer
	}

	switch err := cluster.Notify(ctx, n); {
	case errors.Is(err, model.ErrNoNotifyHandler):
		// spec.md §4.6: a cluster with no registered notify handler
		// rejects the POST rather than accepting and discarding it.
		return badRequest()
	case err != nil:
		return badRequest()
	}
	return changed()
}
