package storage

import (
	"fmt"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// storedReportAttr and storedReport are the internal CBOR shape a
// report configuration row's payload is marshaled to.
type storedReportAttr struct {
	AID    uint16 `cbor:"a"`
	High   any    `cbor:"h,omitempty"`
	Low    any    `cbor:"l,omitempty"`
	Change any    `cbor:"r,omitempty"`
}

type storedReport struct {
	Min   uint16             `cbor:"n"`
	Max   uint16             `cbor:"x"`
	Attrs []storedReportAttr `cbor:"a"`
}

func marshalReport(r *model.ReportConfig) ([]byte, error) {
	attrs := make([]storedReportAttr, 0, len(r.Attributes))
	for _, a := range r.Attributes {
		sa := storedReportAttr{AID: a.AttributeID}
		if a.HighThreshold != nil {
			v, err := wire.MarshalValue(*a.HighThreshold)
			if err != nil {
				return nil, err
			}
			sa.High = v
		}
		if a.LowThreshold != nil {
			v, err := wire.MarshalValue(*a.LowThreshold)
			if err != nil {
				return nil, err
			}
			sa.Low = v
		}
		if a.ReportableChange != nil {
			v, err := wire.MarshalValue(*a.ReportableChange)
			if err != nil {
				return nil, err
			}
			sa.Change = v
		}
		attrs = append(attrs, sa)
	}
	return wire.Marshal(storedReport{Min: r.MinInterval, Max: r.MaxInterval, Attrs: attrs})
}

func unmarshalReport(id uint8, payload []byte) (*model.ReportConfig, error) {
	var sr storedReport
	if err := wire.Unmarshal(payload, &sr); err != nil {
		return nil, fmt.Errorf("storage: decode report row: %w", err)
	}
	attrs := make([]wire.ReportAttributeConfig, 0, len(sr.Attrs))
	for _, sa := range sr.Attrs {
		cfg := wire.ReportAttributeConfig{AttributeID: sa.AID}
		if sa.High != nil {
			v, err := wire.DecodeValueItem(sa.High)
			if err != nil {
				return nil, fmt.Errorf("storage: decode report row: %w", err)
			}
			cfg.HighThreshold = &v
		}
		if sa.Low != nil {
			v, err := wire.DecodeValueItem(sa.Low)
			if err != nil {
				return nil, fmt.Errorf("storage: decode report row: %w", err)
			}
			cfg.LowThreshold = &v
		}
		if sa.Change != nil {
			v, err := wire.DecodeValueItem(sa.Change)
			if err != nil {
				return nil, fmt.Errorf("storage: decode report row: %w", err)
			}
			cfg.ReportableChange = &v
		}
		attrs = append(attrs, cfg)
	}
	return &model.ReportConfig{
		ID:          id,
		MinInterval: sr.Min,
		MaxInterval: sr.Max,
		Attributes:  attrs,
	}, nil
}

// PutReport inserts a new report configuration row for (eid, cid).
func (s *Store) PutReport(eid uint8, cid uint16, r *model.ReportConfig) (*model.ReportConfig, error) {
	payload, err := marshalReport(r)
	if err != nil {
		return nil, err
	}
	slot, err := s.put(reportsTable, eid, cid, payload)
	if err != nil {
		return nil, err
	}
	r.ID = uint8(slot + 1)
	return r, nil
}

// UpdateReport re-persists a report configuration in place, preserving
// its id.
func (s *Store) UpdateReport(eid uint8, cid uint16, r *model.ReportConfig) error {
	payload, err := marshalReport(r)
	if err != nil {
		return err
	}
	return s.update(reportsTable, int(r.ID)-1, eid, cid, payload)
}

// DeleteReport clears a report configuration's storage row.
func (s *Store) DeleteReport(r *model.ReportConfig) error {
	return s.delete(reportsTable, int(r.ID)-1)
}
