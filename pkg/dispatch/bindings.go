package dispatch

import (
	"fmt"
	"sort"

	"github.com/zclip-go/zclipd/pkg/wire"
)

func (d *Dispatcher) handleBindings(m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}

	switch m {
	case MethodGET:
		ids := make([]uint8, 0, len(cluster.Bindings()))
		for _, b := range cluster.Bindings() {
			ids = append(ids, b.ID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		encoded, err := wire.EncodeBindingIDs(ids)
		if err != nil {
			return internalError()
		}
		return content(encoded)

	case MethodPOST:
		rid, uri, err := wire.DecodeBindingEntry(body)
		if err != nil {
			return badRequest()
		}
		if rid != 0 {
			if _, err := cluster.Report(rid); err != nil {
				return badRequest()
			}
		}
		for _, other := range cluster.Bindings() {
			if other.ReportID == rid && other.URI.Equal(uri) {
				return badRequest()
			}
		}
		binding, err := d.store.PutBinding(res.eid, res.key.ID, uri, rid)
		if err != nil {
			return internalError()
		}
		if err := cluster.AddBinding(binding); err != nil {
			d.store.DeleteBinding(binding)
			return internalError()
		}
		location := fmt.Sprintf("/zcl/e/%x/%c%x/b/%x", res.eid, byte(res.key.Role), res.key.ID, binding.ID)
		return created(location)

	default:
		return methodNotAllowed()
	}
}

func (d *Dispatcher) handleBinding(m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	binding, err := cluster.Binding(uint8(res.id))
	if err != nil {
		return missing(m)
	}

	switch m {
	case MethodGET:
		encoded, err := wire.EncodeBinding(wire.Binding{
			ID:  binding.ID,
			Rid: binding.ReportID,
			URI: binding.URI,
		})
		if err != nil {
			return internalError()
		}
		return content(encoded)

	case MethodPUT:
		rid, uri, err := wire.DecodeBindingEntry(body)
		if err != nil {
			return badRequest()
		}
		if rid != 0 {
			if _, err := cluster.Report(rid); err != nil {
				return badRequest()
			}
		}
		for _, other := range cluster.Bindings() {
			if other.ID == binding.ID {
				continue
			}
			if other.ReportID == rid && other.URI.Equal(uri) {
				return badRequest()
			}
		}
		binding.ReportID = rid
		binding.URI = uri
		if err := d.store.UpdateBinding(res.eid, res.key.ID, binding); err != nil {
			return internalError()
		}
		return changed()

	case MethodDELETE:
		if err := cluster.RemoveBinding(binding.ID); err != nil {
			return internalError()
		}
		if err := d.store.DeleteBinding(binding); err != nil {
			return internalError()
		}
		return deleted()

	default:
		return methodNotAllowed()
	}
}
