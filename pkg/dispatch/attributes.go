package dispatch

import (
	"sort"

	"github.com/zclip-go/zclipd/pkg/wire"
)

func (d *Dispatcher) handleAttributes(m Method, query string, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	switch m {
	case MethodGET:
		if _, err := parseFilter(query); err != nil {
			return badRequest()
		}
		ids := cluster.AttributeIDs()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		body, err := wire.Marshal(ids)
		if err != nil {
			return internalError()
		}
		return content(body)
	case MethodPOST:
		// Batch write is reserved (§4.5); no resource-level semantics defined.
		return methodNotAllowed()
	default:
		return methodNotAllowed()
	}
}

func (d *Dispatcher) handleAttribute(m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	attr, err := cluster.Attribute(res.id)
	if err != nil {
		return missing(m)
	}

	switch m {
	case MethodGET:
		v, err := attr.Read()
		if err != nil {
			return internalError()
		}
		item, err := wire.MarshalValue(v)
		if err != nil {
			return internalError()
		}
		encoded, err := wire.Marshal(map[uint16]any{res.id: item})
		if err != nil {
			return internalError()
		}
		return content(encoded)
	case MethodPUT:
		if !attr.Writable() {
			return badRequest()
		}
		raw := map[uint64]any{}
		if err := wire.Unmarshal(body, &raw); err != nil || len(raw) != 1 {
			return badRequest()
		}
		item, ok := raw[uint64(res.id)]
		if !ok {
			return badRequest()
		}
		v, err := wire.DecodeValueItem(item)
		if err != nil {
			return badRequest()
		}
		if err := attr.Write(v); err != nil {
			return badRequest()
		}
		return changed()
	default:
		return methodNotAllowed()
	}
}
