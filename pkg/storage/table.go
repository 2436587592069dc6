package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	rowSize       = 1024
	tableRows     = 32
	rowHeaderSize = 6 // validity(1) + endpoint(1) + cluster(2) + length(2)
	tableBytes    = rowSize * tableRows
	fileBytes     = tableBytes * 2

	rowValid   = 1
	rowInvalid = 0
)

// table identifies which of the two fixed tables a row belongs to.
type table int

const (
	bindingsTable table = 0
	reportsTable  table = 1
)

// ErrTableFull is returned by put when a table has no free row.
var ErrTableFull = errors.New("storage: table is full")

// ErrRecordTooLarge is returned when a payload does not fit in a row.
var ErrRecordTooLarge = errors.New("storage: record exceeds row capacity")

// ErrInvalidSlot is returned when an operation addresses a slot outside
// [0, tableRows) or a slot that is not currently occupied.
var ErrInvalidSlot = errors.New("storage: invalid or unoccupied slot")

// Store is the memory-mapped backing for the bindings and report
// configuration tables. It is safe for use only from the single
// dispatch goroutine — see package model's concurrency note.
type Store struct {
	file *os.File
	data []byte
}

// Open mmaps the table file at path, creating and zero-initializing it
// if it does not already exist.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	if info.Size() != fileBytes {
		if err := f.Truncate(fileBytes); err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: truncate %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, fileBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: mmap %s: %w", path, err)
	}

	return &Store{file: f, data: data}, nil
}

// Close flushes and unmaps the table file.
func (s *Store) Close() error {
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("storage: msync: %w", err)
	}
	if err := unix.Munmap(s.data); err != nil {
		return fmt.Errorf("storage: munmap: %w", err)
	}
	return s.file.Close()
}

func (s *Store) rowOffset(t table, slot int) int {
	return int(t)*tableBytes + slot*rowSize
}

func (s *Store) row(t table, slot int) []byte {
	off := s.rowOffset(t, slot)
	return s.data[off : off+rowSize]
}

// put linear-scans for the first free row, writes the payload, and
// returns the 0-based slot index. Per C2's put, record ids are assigned
// by the caller as slot+1.
func (s *Store) put(t table, eid uint8, cid uint16, payload []byte) (int, error) {
	if len(payload) > rowSize-rowHeaderSize {
		return 0, ErrRecordTooLarge
	}
	for slot := 0; slot < tableRows; slot++ {
		row := s.row(t, slot)
		if row[0] == rowValid {
			continue
		}
		writeRow(row, eid, cid, payload)
		return slot, nil
	}
	return 0, ErrTableFull
}

// update re-copies a payload into an already-occupied row, preserving
// its slot (and therefore its id).
func (s *Store) update(t table, slot int, eid uint8, cid uint16, payload []byte) error {
	if len(payload) > rowSize-rowHeaderSize {
		return ErrRecordTooLarge
	}
	if slot < 0 || slot >= tableRows || s.row(t, slot)[0] != rowValid {
		return ErrInvalidSlot
	}
	writeRow(s.row(t, slot), eid, cid, payload)
	return nil
}

// delete clears the validity flag on a row.
func (s *Store) delete(t table, slot int) error {
	if slot < 0 || slot >= tableRows || s.row(t, slot)[0] != rowValid {
		return ErrInvalidSlot
	}
	s.row(t, slot)[0] = rowInvalid
	return nil
}

// read returns a row's validity, endpoint id, cluster id and payload.
func (s *Store) read(t table, slot int) (valid bool, eid uint8, cid uint16, payload []byte) {
	row := s.row(t, slot)
	if row[0] != rowValid {
		return false, 0, 0, nil
	}
	eid = row[1]
	cid = binary.BigEndian.Uint16(row[2:4])
	length := binary.BigEndian.Uint16(row[4:6])
	payload = make([]byte, length)
	copy(payload, row[rowHeaderSize:rowHeaderSize+int(length)])
	return true, eid, cid, payload
}

func writeRow(row []byte, eid uint8, cid uint16, payload []byte) {
	row[0] = rowValid
	row[1] = eid
	binary.BigEndian.PutUint16(row[2:4], cid)
	binary.BigEndian.PutUint16(row[4:6], uint16(len(payload)))
	clear(row[rowHeaderSize:])
	copy(row[rowHeaderSize:], payload)
}
