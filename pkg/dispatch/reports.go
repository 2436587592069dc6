package dispatch

import (
	"fmt"
	"sort"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

func (d *Dispatcher) handleReports(m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}

	switch m {
	case MethodGET:
		ids := make([]uint8, 0, len(cluster.Reports()))
		for _, r := range cluster.Reports() {
			ids = append(ids, r.ID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		encoded, err := wire.EncodeReportIDs(ids)
		if err != nil {
			return internalError()
		}
		return content(encoded)

	case MethodPOST:
		entry, err := wire.DecodeReportEntry(body)
		if err != nil {
			return badRequest()
		}
		cfg := &model.ReportConfig{
			MinInterval: entry.Config.MinReportingInterval,
			MaxInterval: entry.Config.MaxReportingInterval,
			Attributes:  entry.Config.Attributes,
		}
		stored, err := d.store.PutReport(res.eid, res.key.ID, cfg)
		if err != nil {
			return internalError()
		}
		if err := cluster.AddReport(stored); err != nil {
			d.store.DeleteReport(stored)
			return internalError()
		}

		// A "u" field means a companion binding should be created
		// referencing the new report — SPEC_FULL.md's completion of
		// the original's unimplemented TODO.
		if entry.Destination != nil {
			binding, err := d.store.PutBinding(res.eid, res.key.ID, *entry.Destination, stored.ID)
			if err != nil {
				return internalError()
			}
			if err := cluster.AddBinding(binding); err != nil {
				d.store.DeleteBinding(binding)
				return internalError()
			}
		}

		location := fmt.Sprintf("/zcl/e/%x/%c%x/r/%x", res.eid, byte(res.key.Role), res.key.ID, stored.ID)
		return created(location)

	default:
		return methodNotAllowed()
	}
}

func (d *Dispatcher) handleReport(m Method, body []byte, res resource) Response {
	_, cluster, ok := d.lookupCluster(res)
	if !ok {
		return missing(m)
	}
	report, err := cluster.Report(uint8(res.id))
	if err != nil {
		return missing(m)
	}

	switch m {
	case MethodGET:
		encoded, err := wire.EncodeReportConfig(wire.ReportConfig{
			ID:                   report.ID,
			MinReportingInterval: report.MinInterval,
			MaxReportingInterval: report.MaxInterval,
			Attributes:           report.Attributes,
		})
		if err != nil {
			return internalError()
		}
		return content(encoded)

	case MethodPUT:
		cfg, err := wire.DecodeReportConfig(body)
		if err != nil {
			return badRequest()
		}
		report.MinInterval = cfg.MinReportingInterval
		report.MaxInterval = cfg.MaxReportingInterval
		report.Attributes = cfg.Attributes
		if err := d.store.UpdateReport(res.eid, res.key.ID, report); err != nil {
			return internalError()
		}
		return changed()

	case MethodDELETE:
		affected, err := cluster.RemoveReport(report.ID)
		if err != nil {
			return internalError()
		}
		if err := d.store.DeleteReport(report); err != nil {
			return internalError()
		}
		for _, b := range affected {
			if err := d.store.UpdateBinding(res.eid, res.key.ID, b); err != nil {
				d.logError("report delete: update orphaned binding", err)
			}
		}
		return deleted()

	default:
		return methodNotAllowed()
	}
}
