package storage

import (
	"fmt"
	"time"

	"github.com/zclip-go/zclipd/pkg/model"
	"github.com/zclip-go/zclipd/pkg/wire"
)

// storedBinding is the CBOR shape a binding row's payload is marshaled
// to — an internal format, distinct from the wire.Binding request/
// response grammar, since the stored timestamp is never part of a CoAP
// payload.
type storedBinding struct {
	URI       string `cbor:"u"`
	Rid       uint8  `cbor:"r"`
	Timestamp int64  `cbor:"t"`
}

func marshalBinding(b *model.Binding) ([]byte, error) {
	return wire.Marshal(storedBinding{
		URI:       b.URI.String(),
		Rid:       b.ReportID,
		Timestamp: b.Timestamp.Unix(),
	})
}

func unmarshalBinding(id uint8, payload []byte) (*model.Binding, error) {
	var sb storedBinding
	if err := wire.Unmarshal(payload, &sb); err != nil {
		return nil, fmt.Errorf("storage: decode binding row: %w", err)
	}
	uri, err := wire.ParseURI(sb.URI)
	if err != nil {
		return nil, fmt.Errorf("storage: decode binding row: %w", err)
	}
	return &model.Binding{
		ID:        id,
		URI:       uri,
		ReportID:  sb.Rid,
		Timestamp: time.Unix(sb.Timestamp, 0).UTC(),
	}, nil
}

// PutBinding inserts a new binding row for (eid, cid) and returns the
// constructed record with its id assigned from the slot index.
func (s *Store) PutBinding(eid uint8, cid uint16, uri wire.URI, rid uint8) (*model.Binding, error) {
	b := &model.Binding{URI: uri, ReportID: rid, Timestamp: time.Now().UTC()}
	payload, err := marshalBinding(b)
	if err != nil {
		return nil, err
	}
	slot, err := s.put(bindingsTable, eid, cid, payload)
	if err != nil {
		return nil, err
	}
	b.ID = uint8(slot + 1)
	return b, nil
}

// UpdateBinding re-persists a binding in place, preserving its id.
func (s *Store) UpdateBinding(eid uint8, cid uint16, b *model.Binding) error {
	payload, err := marshalBinding(b)
	if err != nil {
		return err
	}
	return s.update(bindingsTable, int(b.ID)-1, eid, cid, payload)
}

// DeleteBinding clears a binding's storage row.
func (s *Store) DeleteBinding(b *model.Binding) error {
	return s.delete(bindingsTable, int(b.ID)-1)
}
